package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates a run with minimal required fields.
func createTestRun(id string) Run {
	return Run{
		ID:        id,
		Input:     "job.csv",
		Output:    "out.csv",
		Mode:      "ues-idxnlj",
		Policy:    "idx_target=fk nlj_scope=first",
		Renderer:  "pg_hint_plan",
		StartedAt: testStart,
	}
}

// createTestRow creates a hinted row for run at position seq.
func createTestRow(runID string, seq int64, queryHash string) Row {
	return Row{
		RunID:          runID,
		Seq:            seq,
		QueryHash:      queryHash,
		Status:         "hinted",
		Hint:           "/*+\nNestLoop(cn mc)\nIndexScan(mc)\n*/",
		Directives:     `[{"depth":1,"edge":"cn.id=mc.company_id","index_scan":"mc","probe":"cn","subquery":"sq_mc"}]`,
		DirectivesHash: "abc",
	}
}
