package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Company Methods
// -----------------------------------------------------------------------------

const companyColumns = `id, name, slug, website_url, is_active, source, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*Company, error) {
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.WebsiteURL, &c.IsActive, &c.Source, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// NormalizeSlug lowercases and trims a board slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// CreateCompany inserts a company. A taken slug returns ErrDuplicateSlug
// regardless of source.
func (db *DB) CreateCompany(ctx context.Context, input CompanyInput) (*Company, error) {
	name := strings.TrimSpace(input.Name)
	slug := NormalizeSlug(input.Slug)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("company name and slug cannot be empty")
	}
	if !input.Source.Valid() {
		return nil, fmt.Errorf("invalid company source %q", input.Source)
	}

	var website *string
	if w := strings.TrimSpace(input.WebsiteURL); w != "" {
		website = &w
	}

	c, err := scanCompany(db.pool.QueryRow(ctx,
		`INSERT INTO companies (name, slug, website_url, source)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+companyColumns,
		name, slug, website, input.Source,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return c, nil
}

// GetCompany retrieves a company by its UUID. Returns nil when absent.
func (db *DB) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	c, err := scanCompany(db.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// ListCompanies returns every company ordered by name.
func (db *DB) ListCompanies(ctx context.Context) ([]Company, error) {
	return db.queryCompanies(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name ASC`)
}

// ActiveCompanies returns the companies ingestion should visit.
// When id is non-nil only that company is returned, and only if it is active.
func (db *DB) ActiveCompanies(ctx context.Context, id *uuid.UUID) ([]Company, error) {
	if id != nil {
		return db.queryCompanies(ctx,
			`SELECT `+companyColumns+` FROM companies WHERE id = $1 AND is_active ORDER BY name ASC`, *id)
	}
	return db.queryCompanies(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE is_active ORDER BY name ASC`)
}

func (db *DB) queryCompanies(ctx context.Context, query string, args ...any) ([]Company, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}
	return companies, nil
}

// SetCompanyActive soft-activates or deactivates a company.
func (db *DB) SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE companies SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompany hard-deletes a company along with its jobs and applications.
func (db *DB) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
