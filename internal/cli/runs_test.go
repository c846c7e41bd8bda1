package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/store"
)

// loggedRun runs generate against job.csv with a run log and returns the
// database path.
func loggedRun(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")

	stdout, err := execute(t, "", "generate", testdata("job.csv"), "-o", filepath.Join(dir, "out.csv"), "--db", db)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.Contains(t, stdout, "Run: run-1")
	return db
}

func TestRuns_List(t *testing.T) {
	db := loggedRun(t)

	stdout, err := execute(t, "", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run-1")
	assert.Contains(t, stdout, "2024-03-01T12:00:00Z")

	stdout, err = execute(t, "", "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	var runs []RunView
	decodeData(t, stdout, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "idx_target=fk nlj_scope=first", runs[0].Policy)
	assert.Equal(t, store.Counts{Total: 4, Hinted: 2, Unhinted: 1, Failed: 1}, runs[0].Counts)
	assert.NotEmpty(t, runs[0].FinishedAt)
}

func TestRuns_Detail(t *testing.T) {
	db := loggedRun(t)

	var detail RunDetail
	stdout, err := execute(t, "", "--format", "json", "runs", "--db", db, "run-1")
	require.NoError(t, err)
	decodeData(t, stdout, &detail)

	require.Len(t, detail.Rows, 4)
	statuses := make([]string, len(detail.Rows))
	for i, r := range detail.Rows {
		assert.Equal(t, int64(i), r.Seq)
		statuses[i] = r.Status
	}
	assert.Equal(t, []string{"hinted", "unhinted", "failed", "hinted"}, statuses)
	assert.Equal(t, "/*+\nNestLoop(ct mc)\nIndexScan(mc)\n*/", detail.Rows[0].Hint)
	assert.NotEmpty(t, detail.Rows[2].Error)
}

func TestRuns_AbortedRunIsFinished(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")

	_, err := execute(t, "", "generate", testdata("job.csv"), "-o", filepath.Join(dir, "out.csv"),
		"--db", db, "--on-error", "abort", "--workers", "1")
	require.Equal(t, ExitFailure, GetExitCode(err))

	var runs []RunView
	stdout, err := execute(t, "", "--format", "json", "runs", "--db", db)
	require.NoError(t, err)
	decodeData(t, stdout, &runs)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].FinishedAt)
	assert.Equal(t, store.Counts{Total: 3, Hinted: 1, Unhinted: 1, Failed: 1}, runs[0].Counts)

	var detail RunDetail
	stdout, err = execute(t, "", "--format", "json", "runs", "--db", db, "run-1")
	require.NoError(t, err)
	decodeData(t, stdout, &detail)
	require.Len(t, detail.Rows, 3)
	assert.Equal(t, "failed", detail.Rows[2].Status)
}

func TestRuns_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, err := execute(t, "", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs logged.")
}

func TestRuns_Errors(t *testing.T) {
	t.Run("no db", func(t *testing.T) {
		_, err := execute(t, "", "runs")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown run", func(t *testing.T) {
		db := loggedRun(t)
		_, err := execute(t, "", "runs", "--db", db, "run-2")
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}
