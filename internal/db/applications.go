package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

// ListApplications returns applications of active companies, newest postings
// first. Postings without a date sort last.
func (db *DB) ListApplications(ctx context.Context) ([]ApplicationRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.id, a.job_id, a.status, a.notes, a.marked_complete,
		        a.email_subject, a.email_from, a.email_date, a.updated_at,
		        j.external_id, j.title, j.job_url, j.location, j.department,
		        j.posted_at, j.experience, j.fetched_at,
		        c.id, c.name, c.website_url, c.slug, c.source
		 FROM applications a
		 JOIN jobs j ON a.job_id = j.id
		 JOIN companies c ON j.company_id = c.id
		 WHERE c.is_active
		 ORDER BY j.posted_at DESC NULLS LAST, j.fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []ApplicationRow
	for rows.Next() {
		var a ApplicationRow
		if err := rows.Scan(
			&a.ID, &a.JobID, &a.Status, &a.Notes, &a.MarkedComplete,
			&a.EmailSubject, &a.EmailFrom, &a.EmailDate, &a.UpdatedAt,
			&a.ExternalID, &a.Title, &a.JobURL, &a.Location, &a.Department,
			&a.PostedAt, &a.Experience, &a.FetchedAt,
			&a.CompanyID, &a.CompanyName, &a.CompanyWebsite, &a.CompanySlug, &a.CompanySource,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// UpdateApplication applies the user-editable fields that are set.
func (db *DB) UpdateApplication(ctx context.Context, id uuid.UUID, u ApplicationUpdate) error {
	if u.Empty() {
		return fmt.Errorf("nothing to update")
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.Notes != nil {
		add("notes", *u.Notes)
	}
	if u.MarkedComplete != nil {
		add("marked_complete", *u.MarkedComplete)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	tag, err := db.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE applications SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EmailSyncCandidates returns active companies that have at least one job.
// CurrentStatus is the status of the company's most recently updated
// application, or new when none exists.
func (db *DB) EmailSyncCandidates(ctx context.Context) ([]Candidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.name,
		        COALESCE(
		          (SELECT a.status FROM applications a
		           JOIN jobs j2 ON a.job_id = j2.id
		           WHERE j2.company_id = c.id
		           ORDER BY a.updated_at DESC
		           LIMIT 1),
		          'new') AS current_status
		 FROM companies c
		 WHERE c.is_active
		   AND EXISTS (SELECT 1 FROM jobs j WHERE j.company_id = c.id)
		 ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list email sync candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.CurrentStatus); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// ApplyEmailMatches writes each company's match onto its applications whose
// status is still overwrite-safe (new or applied), in one transaction.
// Returns the number of applications changed.
func (db *DB) ApplyEmailMatches(ctx context.Context, matches map[uuid.UUID]EmailMatch) (int64, error) {
	var updated int64
	err := db.InTx(ctx, func(tx *Tx) error {
		for companyID, m := range matches {
			tag, err := tx.tx.Exec(ctx,
				`UPDATE applications
				 SET status = $1, email_subject = $2, email_from = $3,
				     email_date = NULLIF($4, '')::timestamptz, updated_at = NOW()
				 WHERE job_id IN (SELECT id FROM jobs WHERE company_id = $5)
				   AND status IN ('new', 'applied')`,
				m.Status, m.Subject, m.From, m.Date, companyID,
			)
			if err != nil {
				return fmt.Errorf("failed to apply email match for company %s: %w", companyID, err)
			}
			updated += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
