package mail

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/jonathan/job-tracker/internal/config"
)

// Message is the envelope of one mailbox message.
type Message struct {
	UID     uint32
	Subject string
	From    string
	Date    time.Time
}

// Mailbox is an open, read-only mailbox session.
type Mailbox interface {
	// Search returns the ascending UIDs of messages whose subject contains
	// subject or whose sender contains from. An empty from is ignored.
	Search(ctx context.Context, subject, from string) ([]uint32, error)
	// Envelopes fetches the envelopes of uids in ascending UID order.
	Envelopes(ctx context.Context, uids []uint32) ([]Message, error)
	Close() error
}

// DialFunc opens a mailbox session.
type DialFunc func(ctx context.Context, cfg config.MailConfig) (Mailbox, error)

const inbox = "INBOX"

type imapMailbox struct {
	c *client.Client
}

// DialIMAP connects over TLS, logs in and opens the inbox read-only. Every
// command is bounded by cfg.CommandTimeout.
func DialIMAP(ctx context.Context, cfg config.MailConfig) (Mailbox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = config.DefaultMailCommandTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: timeout}, cfg.Address, cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Address, err)
	}
	c.Timeout = timeout

	if err := c.Login(cfg.Username, cfg.AppPassword); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if _, err := c.Select(inbox, true); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to open %s: %w", inbox, err)
	}
	return &imapMailbox{c: c}, nil
}

func (m *imapMailbox) Search(ctx context.Context, subject, from string) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bySubject := imap.NewSearchCriteria()
	bySubject.Header.Add("Subject", subject)

	criteria := bySubject
	if from != "" {
		bySender := imap.NewSearchCriteria()
		bySender.Header.Add("From", from)
		criteria = imap.NewSearchCriteria()
		criteria.Or = [][2]*imap.SearchCriteria{{bySubject, bySender}}
	}

	uids, err := m.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (m *imapMailbox) Envelopes(ctx context.Context, uids []uint32) ([]Message, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- m.c.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope}, ch)
	}()

	var messages []Message
	for msg := range ch {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		out := Message{
			UID:     msg.Uid,
			Subject: msg.Envelope.Subject,
			Date:    msg.Envelope.Date,
		}
		if len(msg.Envelope.From) > 0 && msg.Envelope.From[0] != nil {
			out.From = msg.Envelope.From[0].Address()
		}
		messages = append(messages, out)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].UID < messages[j].UID })
	return messages, nil
}

func (m *imapMailbox) Close() error {
	return m.c.Logout()
}
