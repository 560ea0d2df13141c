package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Meta Methods
// -----------------------------------------------------------------------------

// GetMeta returns the value stored under key, or nil when unset.
func (db *DB) GetMeta(ctx context.Context, key string) (*string, error) {
	var value string
	err := db.pool.QueryRow(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return &value, nil
}

// GetMetaValues returns the values stored under keys. Unset keys are absent from the map.
func (db *DB) GetMetaValues(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT key, value FROM meta WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to get meta values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan meta value: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meta values: %w", err)
	}
	return values, nil
}

// SetMeta stores value under key, replacing any previous value.
func (db *DB) SetMeta(ctx context.Context, key, value string) error {
	if _, err := db.pool.Exec(ctx, upsertMetaSQL, key, value); err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// SetMetaValues stores every pair in one transaction.
func (db *DB) SetMetaValues(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return db.InTx(ctx, func(tx *Tx) error {
		for k, v := range values {
			if _, err := tx.tx.Exec(ctx, upsertMetaSQL, k, v); err != nil {
				return fmt.Errorf("failed to set meta %s: %w", k, err)
			}
		}
		return nil
	})
}

const upsertMetaSQL = `INSERT INTO meta (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
