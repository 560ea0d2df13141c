package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/sources"
)

// Status is an application's position in the hiring process.
type Status string

// Status values. The progression is informational and not enforced.
const (
	StatusNew         Status = "new"
	StatusApplied     Status = "applied"
	StatusPhoneScreen Status = "phone_screen"
	StatusInterview   Status = "interview"
	StatusOffer       Status = "offer"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
	StatusComplete    Status = "complete"
)

var statusRanks = map[Status]int{
	StatusNew:         0,
	StatusApplied:     1,
	StatusPhoneScreen: 2,
	StatusInterview:   3,
	StatusOffer:       4,
	StatusRejected:    5,
	StatusWithdrawn:   5,
	StatusComplete:    5,
}

// Rank orders statuses along the pipeline. Terminal side statuses share the
// highest rank; unknown statuses rank -1.
func (s Status) Rank() int {
	if r, ok := statusRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRanks[s]
	return ok
}

// Overwritable reports whether an inferred email status may replace s.
func (s Status) Overwritable() bool {
	return s == StatusNew || s == StatusApplied
}

// ParseStatus validates user-supplied status text.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return s, nil
}

// Company represents a tracked employer
type Company struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Slug       string         `json:"slug"`
	WebsiteURL *string        `json:"website_url,omitempty"`
	IsActive   bool           `json:"is_active"`
	Source     sources.Source `json:"source"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CompanyInput holds the fields for creating a company
type CompanyInput struct {
	Name       string
	Slug       string
	WebsiteURL string
	Source     sources.Source
}

// CompanyPostings pairs a company with the postings fetched for it.
type CompanyPostings struct {
	Company  Company
	Postings []sources.Posting
}

// ApplicationRow is an application joined with its job and active company,
// as listed by ListApplications.
type ApplicationRow struct {
	ID             uuid.UUID  `json:"id"`
	JobID          uuid.UUID  `json:"job_id"`
	Status         Status     `json:"status"`
	Notes          string     `json:"notes"`
	MarkedComplete bool       `json:"marked_complete"`
	EmailSubject   *string    `json:"email_subject"`
	EmailFrom      *string    `json:"email_from"`
	EmailDate      *time.Time `json:"email_date"`
	UpdatedAt      time.Time  `json:"updated_at"`

	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	JobURL     string     `json:"job_url"`
	Location   string     `json:"location"`
	Department string     `json:"department"`
	PostedAt   *time.Time `json:"posted_at"`
	Experience *string    `json:"experience"`
	FetchedAt  time.Time  `json:"fetched_at"`

	CompanyID      uuid.UUID      `json:"company_id"`
	CompanyName    string         `json:"company_name"`
	CompanyWebsite *string        `json:"company_website"`
	CompanySlug    string         `json:"company_slug"`
	CompanySource  sources.Source `json:"company_source"`
}

// ApplicationUpdate holds the user-editable application fields. Nil fields are left unchanged.
type ApplicationUpdate struct {
	Status         *Status
	Notes          *string
	MarkedComplete *bool
}

// Empty reports whether the update changes nothing.
func (u ApplicationUpdate) Empty() bool {
	return u.Status == nil && u.Notes == nil && u.MarkedComplete == nil
}

// Candidate is a company eligible for email reconciliation, with the status
// of its most recently updated application.
type Candidate struct {
	ID            uuid.UUID
	Name          string
	CurrentStatus Status
}

// EmailMatch is the best classified email found for a company.
// Date is RFC 3339 or empty when the message had no date.
type EmailMatch struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Status  Status `json:"status"`
}

// Meta keys
const (
	MetaLastRefreshed      = "last_refreshed"
	MetaLastEmailSync      = "last_email_sync"
	MetaTargetRole         = "target_role"
	MetaTargetLocation     = "target_location"
	MetaTargetLocationType = "target_location_type"
	MetaTargetExp          = "target_exp"
	MetaTargetDateWithin   = "target_date_within"
)
