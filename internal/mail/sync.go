package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/logging"
	"github.com/jonathan/job-tracker/internal/metrics"
)

// SyncStore is the subset of the database email sync uses.
type SyncStore interface {
	EmailSyncCandidates(ctx context.Context) ([]db.Candidate, error)
	ApplyEmailMatches(ctx context.Context, matches map[uuid.UUID]db.EmailMatch) (int64, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Scanner classifies mailbox correspondence per company. *Classifier implements it.
type Scanner interface {
	Scan(ctx context.Context, candidates []db.Candidate) (map[uuid.UUID]db.EmailMatch, error)
}

// Syncer reconciles application statuses with the inbox.
type Syncer struct {
	store   SyncStore
	scanner Scanner
	logger  *zap.Logger
	now     func() time.Time
}

// NewSyncer creates a Syncer.
func NewSyncer(store SyncStore, scanner Scanner, logger *zap.Logger) *Syncer {
	return &Syncer{
		store:   store,
		scanner: scanner,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// Sync scans the inbox for every active company with jobs and applies the
// matches to overwrite-safe applications. It returns the number of
// applications updated. With no candidate companies it returns 0 without
// touching the mailbox.
func (s *Syncer) Sync(ctx context.Context) (int64, error) {
	candidates, err := s.store.EmailSyncCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load companies: %w", err)
	}
	if len(candidates) == 0 {
		s.logger.Info("no companies with jobs to sync")
		return 0, nil
	}

	matches, err := s.scanner.Scan(ctx, candidates)
	if err != nil {
		return 0, err
	}

	updated, err := s.store.ApplyEmailMatches(ctx, matches)
	if err != nil {
		return 0, fmt.Errorf("failed to apply email matches: %w", err)
	}
	metrics.EmailSyncUpdates.Add(float64(updated))

	if err := s.store.SetMeta(ctx, db.MetaLastEmailSync, s.now().UTC().Format(time.RFC3339)); err != nil {
		return updated, fmt.Errorf("failed to record sync time: %w", err)
	}

	s.logger.Info("email sync finished",
		zap.Int("companies", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Int64("updated", updated))
	return updated, nil
}
