package store

import (
	"context"
	"fmt"
)

// Run is one recorded generation.
type Run struct {
	Seq          int64  `json:"seq"`
	ID           string `json:"id"`
	CleanRebuild bool   `json:"clean_rebuild"`
	Files        int    `json:"files"`
	Fingerprint  string `json:"fingerprint"`
	ErrorCount   int    `json:"error_count"`
	Message      string `json:"message,omitempty"`
}

// WriteRun appends a run record. Seq is assigned by the database and
// returned.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, clean_rebuild, files, fingerprint, error_count, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.CleanRebuild,
		run.Files,
		run.Fingerprint,
		run.ErrorCount,
		run.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	return seq, nil
}

// RecentRuns returns up to limit runs, newest first.
// A limit <= 0 returns every run.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, clean_rebuild, files, fingerprint, error_count, message
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Seq, &r.ID, &r.CleanRebuild, &r.Files, &r.Fingerprint, &r.ErrorCount, &r.Message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
