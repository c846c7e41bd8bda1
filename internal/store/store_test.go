package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/testutil"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"runs", "run_rows"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.expected); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_MigrationIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_run_rows_query_hash'",
	).Scan(&name)
	require.NoError(t, err)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	id := testutil.NewFixedRunIDGenerator("").Generate()

	require.NoError(t, s.BeginRun(ctx, createTestRun(id)))

	run, err := s.ReadRun(ctx, id)
	require.NoError(t, err)
	assert.False(t, run.Finished())
	assert.Equal(t, testStart, run.StartedAt)
	assert.Equal(t, "idx_target=fk nlj_scope=first", run.Policy)

	rows := []Row{
		createTestRow(id, 0, "q0"),
		{RunID: id, Seq: 1, QueryHash: "q1", Status: "unhinted"},
		{RunID: id, Seq: 2, QueryHash: "q2", Status: "failed", Error: "parse error"},
	}
	require.NoError(t, s.WriteRows(ctx, rows))

	clock := testutil.NewStepClock(testStart, 0)
	counts := Counts{Total: 3, Hinted: 1, Unhinted: 1, Failed: 1}
	require.NoError(t, s.FinishRun(ctx, id, counts, clock.Now().Add(90*time.Second)))

	run, err = s.ReadRun(ctx, id)
	require.NoError(t, err)
	assert.True(t, run.Finished())
	assert.Equal(t, counts, run.Counts)

	got, err := s.ReadRows(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, rows[0], got[0])
	assert.Equal(t, "[]", got[1].Directives)
	assert.Equal(t, "parse error", got[2].Error)
}

func TestWriteRows_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, createTestRun("run-1")))

	row := createTestRow("run-1", 0, "q0")
	require.NoError(t, s.WriteRows(ctx, []Row{row}))

	changed := row
	changed.Hint = "something else"
	require.NoError(t, s.WriteRows(ctx, []Row{changed}))

	got, err := s.ReadRows(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, row.Hint, got[0].Hint)
}

func TestWriteRows_RequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteRows(context.Background(), []Row{createTestRow("missing", 0, "q0")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "FOREIGN KEY"), err.Error())
}

func TestWriteRows_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, createTestRun("run-1")))

	row := createTestRow("run-1", 0, "q0")
	row.Status = "maybe"
	assert.Error(t, s.WriteRows(ctx, []Row{row}))
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = s.FinishRun(context.Background(), "nope", Counts{}, testStart)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns_OrderedByID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, id := range []string{"run-b", "run-c", "run-a"} {
		require.NoError(t, s.BeginRun(ctx, createTestRun(id)))
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, ids)
}

func TestReadQueryHistory(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, id := range []string{"run-2", "run-1"} {
		require.NoError(t, s.BeginRun(ctx, createTestRun(id)))
		require.NoError(t, s.WriteRows(ctx, []Row{
			createTestRow(id, 0, "other"),
			createTestRow(id, 1, "target"),
		}))
	}

	history, err := s.ReadQueryHistory(ctx, "target")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-1", history[0].RunID)
	assert.Equal(t, "run-2", history[1].RunID)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14])
}
