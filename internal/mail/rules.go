// Package mail infers application status from inbox correspondence.
package mail

import (
	"strings"

	"github.com/jonathan/job-tracker/internal/db"
)

type rule struct {
	status   db.Status
	keywords []string
}

// rules are checked in priority order; the first rule with a keyword in the
// subject decides the status.
var rules = []rule{
	{
		status:   db.StatusOffer,
		keywords: []string{"offer letter", "formal offer", "we'd like to offer", "we would like to offer"},
	},
	{
		status: db.StatusInterview,
		keywords: []string{"interview", "schedule", "next steps", "move forward", "moving forward",
			"phone screen", "video call", "hiring manager"},
	},
	{
		status: db.StatusRejected,
		keywords: []string{"unfortunately", "not moving forward", "other candidates", "not selected",
			"decided to move", "will not be moving", "position has been filled", "we won't be"},
	},
	{
		status: db.StatusApplied,
		keywords: []string{"received your application", "thank you for applying", "application received",
			"we received your", "successfully submitted"},
	},
}

// Classify maps an email subject to a status by case-insensitive keyword
// containment. ok is false when no rule matches.
func Classify(subject string) (status db.Status, ok bool) {
	lower := strings.ToLower(subject)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.status, true
			}
		}
	}
	return "", false
}

// priority returns the rule index of status; lower wins. Unknown statuses rank last.
func priority(status db.Status) int {
	for i, r := range rules {
		if r.status == status {
			return i
		}
	}
	return len(rules)
}

// NormalizeSender reduces a company name to the lowercase alphanumerics used
// to match sender addresses, e.g. "Acme, Inc." becomes "acmeinc".
func NormalizeSender(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
