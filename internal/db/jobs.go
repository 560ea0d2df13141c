package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/sources"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// UpsertPosting merges one posting into the jobs table and ensures the job has
// an application. A known posting only refreshes fetched_at and fills
// posted_at or experience when they are still null; every other column keeps
// its first-seen value. created reports whether a new application was inserted.
func (tx *Tx) UpsertPosting(ctx context.Context, company Company, p sources.Posting) (bool, error) {
	var jobID uuid.UUID
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO jobs (external_id, company_id, title, job_url, location, department,
		                   posted_at, experience, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (external_id) DO UPDATE SET
		   fetched_at = NOW(),
		   posted_at = COALESCE(jobs.posted_at, EXCLUDED.posted_at),
		   experience = COALESCE(jobs.experience, EXCLUDED.experience)
		 RETURNING id`,
		p.ExternalID, company.ID, p.Title, p.URL, p.Location, p.Department,
		p.PostedAt, p.Experience, company.Source,
	).Scan(&jobID)
	if err != nil {
		return false, fmt.Errorf("failed to upsert job %s: %w", p.ExternalID, err)
	}

	tag, err := tx.tx.Exec(ctx,
		`INSERT INTO applications (job_id) VALUES ($1)
		 ON CONFLICT (job_id) DO NOTHING`,
		jobID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create application for job %s: %w", p.ExternalID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertBatch applies every posting in order inside one transaction and
// returns the number of applications created. Any failure rolls back the batch.
func (db *DB) UpsertBatch(ctx context.Context, batch []CompanyPostings) (int, error) {
	created := 0
	err := db.InTx(ctx, func(tx *Tx) error {
		for _, cp := range batch {
			for _, p := range cp.Postings {
				ok, err := tx.UpsertPosting(ctx, cp.Company, p)
				if err != nil {
					return err
				}
				if ok {
					created++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
