package store

import (
	"context"
	"fmt"
	"time"
)

// BeginRun records a new run. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - a duplicate ID is silently ignored.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, input, output, mode, policy, renderer, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Input,
		run.Output,
		run.Mode,
		run.Policy,
		run.Renderer,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteRows inserts row outcomes in one transaction. Rows already logged
// for the same (run_id, seq) are left untouched.
//
// Note: the run referenced by each row must exist (foreign key constraint).
func (s *Store) WriteRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows
		(run_id, seq, query_hash, status, hint, directives, directives_hash, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		directives := r.Directives
		if directives == "" {
			directives = "[]"
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Seq, r.QueryHash, r.Status, r.Hint, directives, r.DirectivesHash, r.Error,
		); err != nil {
			return fmt.Errorf("write row %d: %w", r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// FinishRun stores the final counts and completion time of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, counts Counts, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, total = ?, hinted = ?, unhinted = ?, failed = ?
		WHERE id = ?
	`,
		nullTime(finishedAt),
		counts.Total,
		counts.Hinted,
		counts.Unhinted,
		counts.Failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}
