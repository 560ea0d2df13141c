// Package ingest orchestrates fetching postings from every active company and
// merging them into the store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/logging"
	"github.com/jonathan/job-tracker/internal/metrics"
	"github.com/jonathan/job-tracker/internal/sources"
)

// Store is the subset of the database the ingester uses.
type Store interface {
	GetMeta(ctx context.Context, key string) (*string, error)
	SetMeta(ctx context.Context, key, value string) error
	ActiveCompanies(ctx context.Context, id *uuid.UUID) ([]db.Company, error)
	UpsertBatch(ctx context.Context, batch []db.CompanyPostings) (int, error)
}

// Fetcher fetches one company's postings. *sources.Registry implements it.
type Fetcher interface {
	Fetch(ctx context.Context, s sources.Source, slug string, keywords []string) []sources.Posting
}

// ProgressEvent reports a committed batch.
type ProgressEvent struct {
	Batch           int `json:"batch"`
	Batches         int `json:"batches"`
	Companies       int `json:"companies"`
	Postings        int `json:"postings"`
	NewApplications int `json:"new_applications"`
}

// ProgressCallback is called after each batch commits
type ProgressCallback func(event ProgressEvent)

// Options configures an Ingester. A BatchSize below 1 uses config.DefaultBatchSize.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Result summarizes one ingestion run.
type Result struct {
	NewApplications int `json:"newJobs"`
	Companies       int `json:"companies"`
	Postings        int `json:"postings"`
}

// Ingester runs ingestion. Runs are serialized; a second caller waits for the
// first until its context ends.
type Ingester struct {
	store   Store
	fetcher Fetcher
	opts    Options
	logger  *zap.Logger

	running chan struct{} // holds a token while a run is in progress
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an Ingester.
func New(store Store, fetcher Fetcher, opts Options) *Ingester {
	if opts.BatchSize < 1 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	return &Ingester{
		store:   store,
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.OrNop(opts.Logger),
		running: make(chan struct{}, 1),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run ingests the single active company companyID, or every active company when
// companyID is nil, and returns the number of applications created.
// Companies are fetched concurrently in batches; each batch is merged in one
// transaction and a store failure aborts the run.
func (in *Ingester) Run(ctx context.Context, companyID *uuid.UUID) (Result, error) {
	return in.RunWithProgress(ctx, companyID, in.opts.OnProgress)
}

// RunWithProgress is Run with a per-call progress callback in place of
// Options.OnProgress.
func (in *Ingester) RunWithProgress(ctx context.Context, companyID *uuid.UUID, onProgress ProgressCallback) (Result, error) {
	select {
	case in.running <- struct{}{}:
	case <-ctx.Done():
		return Result{}, fmt.Errorf("failed to wait for running ingestion: %w", ctx.Err())
	}
	defer func() { <-in.running }()

	result, err := in.run(ctx, companyID, onProgress)
	if err != nil {
		metrics.IngestRuns.WithLabelValues("error").Inc()
		in.logger.Error("ingestion failed", zap.Error(err))
		return result, err
	}
	metrics.IngestRuns.WithLabelValues("success").Inc()
	in.logger.Info("ingestion finished",
		zap.Int("companies", result.Companies),
		zap.Int("postings", result.Postings),
		zap.Int("new_applications", result.NewApplications))
	return result, nil
}

func (in *Ingester) run(ctx context.Context, companyID *uuid.UUID, onProgress ProgressCallback) (Result, error) {
	var result Result

	targetRole, err := in.store.GetMeta(ctx, db.MetaTargetRole)
	if err != nil {
		return result, fmt.Errorf("failed to load target role: %w", err)
	}
	var keywords []string
	if targetRole != nil {
		keywords = sources.ParseKeywords(*targetRole)
	}

	companies, err := in.store.ActiveCompanies(ctx, companyID)
	if err != nil {
		return result, fmt.Errorf("failed to load companies: %w", err)
	}
	result.Companies = len(companies)

	size := in.opts.BatchSize
	batches := (len(companies) + size - 1) / size
	for start, n := 0, 1; start < len(companies); start, n = start+size, n+1 {
		end := min(start+size, len(companies))
		batch := in.fetchBatch(ctx, companies[start:end], keywords)

		postings := 0
		for _, cp := range batch {
			postings += len(cp.Postings)
		}

		created, err := in.store.UpsertBatch(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("failed to merge batch %d/%d: %w", n, batches, err)
		}
		result.Postings += postings
		result.NewApplications += created
		metrics.IngestPostings.Add(float64(postings))
		metrics.IngestNewApplications.Add(float64(created))

		in.logger.Debug("batch merged",
			zap.Int("batch", n),
			zap.Int("batches", batches),
			zap.Int("postings", postings),
			zap.Int("new_applications", created))
		if onProgress != nil {
			onProgress(ProgressEvent{
				Batch:           n,
				Batches:         batches,
				Companies:       end - start,
				Postings:        postings,
				NewApplications: created,
			})
		}

		if end < len(companies) {
			if err := in.sleep(ctx, in.opts.BatchDelay); err != nil {
				return result, fmt.Errorf("ingestion interrupted: %w", err)
			}
		}
	}

	refreshed := in.now().UTC().Format(time.RFC3339)
	if err := in.store.SetMeta(ctx, db.MetaLastRefreshed, refreshed); err != nil {
		return result, fmt.Errorf("failed to record refresh time: %w", err)
	}
	return result, nil
}

// fetchBatch fetches every company concurrently and returns the postings in
// company order.
func (in *Ingester) fetchBatch(ctx context.Context, companies []db.Company, keywords []string) []db.CompanyPostings {
	batch := make([]db.CompanyPostings, len(companies))
	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range companies {
		batch[i].Company = c
		g.Go(func() error {
			batch[i].Postings = in.fetcher.Fetch(gCtx, c.Source, c.Slug, keywords)
			return nil
		})
	}
	// Fetchers absorb their own failures
	_ = g.Wait()
	return batch
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
