package store

import (
	"context"
	"fmt"
)

// Snapshot returns the committed path -> digest map.
// Returns an empty map (not nil) when nothing has been committed.
func (s *Store) Snapshot(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, digest FROM file_snapshots
		ORDER BY path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]string)
	for rows.Next() {
		var path, digest string
		if err := rows.Scan(&path, &digest); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshot[path] = digest
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}
	return snapshot, nil
}

// ReplaceSnapshot atomically replaces the committed snapshot.
func (s *Store) ReplaceSnapshot(ctx context.Context, snapshot map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_snapshots`); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO file_snapshots (path, digest) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	defer stmt.Close()

	for path, digest := range snapshot {
		if _, err := stmt.ExecContext(ctx, path, digest); err != nil {
			return fmt.Errorf("replace snapshot: insert %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace snapshot: commit: %w", err)
	}
	return nil
}
