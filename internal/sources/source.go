// Package sources fetches job postings from applicant tracking systems and
// normalizes them into one posting shape.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/fetch"
	"github.com/jonathan/job-tracker/internal/logging"
)

// Source is the applicant tracking system a company publishes its postings on.
type Source string

const (
	Greenhouse Source = "greenhouse"
	Lever      Source = "lever"
	Ashby      Source = "ashby"
)

// All returns every supported source in a stable order.
func All() []Source {
	return []Source{Greenhouse, Lever, Ashby}
}

// Valid reports whether s is a supported source.
func (s Source) Valid() bool {
	switch s {
	case Greenhouse, Lever, Ashby:
		return true
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// ParseSource converts a case-insensitive name into a Source.
func ParseSource(name string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source %q", name)
	}
	return s, nil
}

// Posting is a job posting normalized from any source.
// ExternalID is globally unique across sources.
type Posting struct {
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Location   string     `json:"location"`
	Department string     `json:"department"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	Experience *string    `json:"experience,omitempty"`
}

// Adapter fetches one company's postings from a single source.
// Fetch never fails: any transport, status or payload problem yields an empty list.
type Adapter interface {
	Source() Source
	Fetch(ctx context.Context, slug string, keywords []string) []Posting
}

// Options configures the adapters built by NewRegistry.
type Options struct {
	// BaseURLs overrides the API root per source.
	BaseURLs map[Source]string
	Timeout  time.Duration
	Client   *http.Client
	Logger   *zap.Logger
}

// Registry dispatches fetches to the adapter registered for a source.
type Registry struct {
	adapters map[Source]Adapter
}

// NewRegistry builds a registry with the Greenhouse, Lever and Ashby adapters.
func NewRegistry(opts Options) *Registry {
	c := newClient(opts)
	return NewRegistryOf(
		&GreenhouseAdapter{client: c, baseURL: baseURL(opts, Greenhouse, DefaultGreenhouseURL)},
		&LeverAdapter{client: c, baseURL: baseURL(opts, Lever, DefaultLeverURL)},
		&AshbyAdapter{client: c, baseURL: baseURL(opts, Ashby, DefaultAshbyURL)},
	)
}

// NewRegistryOf builds a registry from explicit adapters. Later adapters replace
// earlier ones for the same source.
func NewRegistryOf(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Source]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// Adapter returns the adapter registered for s.
func (r *Registry) Adapter(s Source) (Adapter, bool) {
	a, ok := r.adapters[s]
	return a, ok
}

// Fetch fetches postings for slug from the adapter registered for s.
// An unregistered source yields no postings.
func (r *Registry) Fetch(ctx context.Context, s Source, slug string, keywords []string) []Posting {
	a, ok := r.adapters[s]
	if !ok {
		return nil
	}
	return a.Fetch(ctx, slug, keywords)
}

func baseURL(opts Options, s Source, fallback string) string {
	if u, ok := opts.BaseURLs[s]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

func newClient(opts Options) *client {
	fetchOpts := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fetchOpts.Timeout = opts.Timeout
	}
	fetchOpts.Client = opts.Client
	return &client{
		opts:   fetchOpts,
		logger: logging.OrNop(opts.Logger),
	}
}
