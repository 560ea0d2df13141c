package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/logging"
	"github.com/jonathan/job-tracker/internal/metrics"
)

// recentMessages is how many of the latest hits per company are classified.
const recentMessages = 3

// Classifier scans a mailbox for each company's latest correspondence.
type Classifier struct {
	cfg    config.MailConfig
	dial   DialFunc
	logger *zap.Logger
}

// NewClassifier creates a Classifier that connects over IMAP.
func NewClassifier(cfg config.MailConfig, logger *zap.Logger) *Classifier {
	return NewClassifierWithDialer(cfg, DialIMAP, logger)
}

// NewClassifierWithDialer creates a Classifier that opens sessions with dial.
func NewClassifierWithDialer(cfg config.MailConfig, dial DialFunc, logger *zap.Logger) *Classifier {
	return &Classifier{cfg: cfg, dial: dial, logger: logging.OrNop(logger)}
}

// Scan opens one mailbox session and classifies the latest messages that
// mention each company. Companies whose status is not overwrite-safe are not
// searched, and companies without a classified message are omitted.
// A failed search for one company is logged and skipped. When the overall sync
// deadline passes, the remaining companies are skipped and the matches found
// so far are returned.
func (c *Classifier) Scan(ctx context.Context, candidates []db.Candidate) (map[uuid.UUID]db.EmailMatch, error) {
	if err := c.cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	results := make(map[uuid.UUID]db.EmailMatch)
	var eligible []db.Candidate
	for _, cand := range candidates {
		if cand.CurrentStatus.Overwritable() {
			eligible = append(eligible, cand)
		}
	}
	if len(eligible) == 0 {
		return results, nil
	}

	if c.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SyncTimeout)
		defer cancel()
	}

	mb, err := c.dial(ctx, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox: %w", err)
	}
	defer func() {
		if err := mb.Close(); err != nil {
			c.logger.Warn("failed to close mailbox", zap.Error(err))
		}
	}()

	for i, cand := range eligible {
		if ctx.Err() != nil {
			c.logger.Warn("mail scan stopped early",
				zap.Error(ctx.Err()),
				zap.Int("skipped", len(eligible)-i))
			break
		}

		match, err := c.scanCompany(ctx, mb, cand)
		if err != nil {
			c.logger.Warn("skipping company",
				zap.String("company", cand.Name),
				zap.Error(err))
			continue
		}
		if match == nil {
			continue
		}
		results[cand.ID] = *match
		metrics.EmailClassifications.WithLabelValues(string(match.Status)).Inc()
	}
	return results, nil
}

func (c *Classifier) scanCompany(ctx context.Context, mb Mailbox, cand db.Candidate) (*db.EmailMatch, error) {
	uids, err := mb.Search(ctx, cand.Name, NormalizeSender(cand.Name))
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > recentMessages {
		uids = uids[len(uids)-recentMessages:]
	}

	messages, err := mb.Envelopes(ctx, uids)
	if err != nil {
		return nil, err
	}
	return bestMatch(messages), nil
}

// bestMatch returns the highest-priority classified message. On equal
// priority the earlier message wins.
func bestMatch(messages []Message) *db.EmailMatch {
	var best *db.EmailMatch
	for _, msg := range messages {
		status, ok := Classify(msg.Subject)
		if !ok {
			continue
		}
		if best != nil && priority(status) >= priority(best.Status) {
			continue
		}
		best = &db.EmailMatch{
			Subject: msg.Subject,
			From:    msg.From,
			Date:    formatDate(msg.Date),
			Status:  status,
		}
	}
	return best
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
