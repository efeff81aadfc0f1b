package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Record is the last successful deployment of one artifact.
type Record struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	OutputPath  string    `json:"output_path"`
	RunID       string    `json:"run_id"`
	DeployedAt  time.Time `json:"deployed_at"`
}

// Hashes returns the recorded content hash of every artifact.
func (s *Store) Hashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, content_hash FROM artifacts")
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// Get returns the record for path, or ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT path, content_hash, output_path, run_id, deployed_at FROM artifacts WHERE path = ?", path)

	var rec Record
	var deployedAt string
	if err := row.Scan(&rec.Path, &rec.ContentHash, &rec.OutputPath, &rec.RunID, &deployedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("get artifact %s: %w", path, err)
	}
	t, err := parseTime(deployedAt)
	if err != nil {
		return nil, fmt.Errorf("parse deployed_at for %s: %w", path, err)
	}
	rec.DeployedAt = t
	return &rec, nil
}

// Upsert writes records in a single transaction.
func (s *Store) Upsert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin upsert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO artifacts (path, content_hash, output_path, run_id, deployed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	content_hash = excluded.content_hash,
	output_path  = excluded.output_path,
	run_id       = excluded.run_id,
	deployed_at  = excluded.deployed_at`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			deployedAt := r.DeployedAt
			if deployedAt.IsZero() {
				deployedAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, r.Path, r.ContentHash, r.OutputPath, r.RunID, formatTime(deployedAt)); err != nil {
				return fmt.Errorf("upsert %s: %w", r.Path, err)
			}
		}
		return tx.Commit()
	})
}
