package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `id, input, output, mode, policy, renderer, started_at, finished_at, total, hinted, unhinted, failed`

const rowColumns = `run_id, seq, query_hash, status, hint, directives, directives_hash, error`

// ReadRun returns one run. Returns ErrRunNotFound for unknown IDs.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by ID, which for UUIDv7 IDs is
// creation order.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRows returns the rows of a run in input order.
//
// Returns an empty slice (not nil) if the run logged no rows.
func (s *Store) ReadRows(ctx context.Context, runID string) ([]Row, error) {
	return s.queryRows(ctx, `
		SELECT `+rowColumns+`
		FROM run_rows
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadQueryHistory returns every logged outcome of one query across runs,
// oldest run first.
func (s *Store) ReadQueryHistory(ctx context.Context, queryHash string) ([]Row, error) {
	return s.queryRows(ctx, `
		SELECT `+rowColumns+`
		FROM run_rows
		WHERE query_hash = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC
	`, queryHash)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
