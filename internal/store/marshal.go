package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one batch invocation.
type Run struct {
	ID         string
	Input      string
	Output     string
	Mode       string
	Policy     string // e.g. "idx_target=fk nlj_scope=first"
	Renderer   string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Counts     Counts
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Counts tallies row outcomes of a run.
type Counts struct {
	Total    int `json:"total"`
	Hinted   int `json:"hinted"`
	Unhinted int `json:"unhinted"`
	Failed   int `json:"failed"`
}

// Row is the logged outcome of one workload query.
type Row struct {
	RunID          string
	Seq            int64 // 0-based position in the input workload
	QueryHash      string
	Status         string // hinted, unhinted or failed
	Hint           string
	Directives     string // canonical JSON array
	DirectivesHash string
	Error          string
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	err := sc.Scan(&r.ID, &r.Input, &r.Output, &r.Mode, &r.Policy, &r.Renderer,
		&started, &finished,
		&r.Counts.Total, &r.Counts.Hinted, &r.Counts.Unhinted, &r.Counts.Failed)
	if err != nil {
		return Run{}, err
	}

	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
	}
	if finished.Valid {
		if r.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func scanRow(sc rowScanner) (Row, error) {
	var r Row
	err := sc.Scan(&r.RunID, &r.Seq, &r.QueryHash, &r.Status, &r.Hint,
		&r.Directives, &r.DirectivesHash, &r.Error)
	if err != nil {
		return Row{}, fmt.Errorf("scan row: %w", err)
	}
	return r, nil
}
