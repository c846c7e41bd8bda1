package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/workload"
)

func readOutput(t *testing.T, path string) *workload.Table {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	table, err := workload.ReadTable(f)
	require.NoError(t, err)
	return table
}

func TestGenerate_FailedRowsExitOne(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	stdout, err := execute(t, "", "generate", testdata("job.csv"), "-o", out, "--workers", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 4 rows failed")

	assert.Contains(t, stdout, "(4 of 4 rows)")
	assert.Contains(t, stdout, "idx_target=fk")
	assert.Contains(t, stdout, "row 2:")

	table := readOutput(t, out)
	require.Len(t, table.Rows, 4)
	hints, err := table.Queries("hint")
	require.NoError(t, err)
	assert.Equal(t, "/*+\nNestLoop(ct mc)\nIndexScan(mc)\n*/", hints[0])
	assert.Empty(t, hints[1])
	assert.Empty(t, hints[2])
	assert.Equal(t, "/*+\nNestLoop(n ci)\nIndexScan(ci)\n*/", hints[3])
}

func TestGenerate_SkipDropsFailedRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, "", "generate", testdata("job.csv"), "-o", out, "--on-error", "skip")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	table := readOutput(t, out)
	require.Len(t, table.Rows, 3)
	labels, err := table.Queries("label")
	require.NoError(t, err)
	assert.Equal(t, []string{"1a", "flat", "2b"}, labels)
}

func TestGenerate_Abort(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, "", "generate", testdata("job.csv"), "-o", out, "--on-error", "abort", "--workers", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "batch aborted")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "aborted batch must not write output")
}

func TestGenerate_PolicyAndRenderer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"query\n"+
			"\"SELECT * FROM title t JOIN (SELECT mc.movie_id FROM movie_companies mc, company_name cn WHERE mc.company_id = cn.id) AS sq ON t.id = sq.movie_id\"\n",
	), 0o644))
	out := filepath.Join(dir, "out.csv")

	stdout, err := execute(t, "", "generate", in, "-o", out,
		"--idx-target", "pk", "--renderer", "tidb", "--hint-col", "hints", "--catalog", testdata("imdb.yaml"))
	require.NoError(t, err, stdout)

	table := readOutput(t, out)
	assert.Equal(t, []string{"query", "hints"}, table.Header)
	hints, err := table.Queries("hints")
	require.NoError(t, err)
	assert.Equal(t, []string{"/*+\nINL_JOIN(cn)\n*/"}, hints)
}

func TestGenerate_JSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	stdout, err := execute(t, "", "--format", "json", "generate", testdata("job.csv"), "-o", out)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result GenerateResult
	decodeData(t, stdout, &result)
	assert.Equal(t, out, result.Output)
	assert.Equal(t, 4, result.Written)
	assert.Equal(t, workload.Summary{Total: 4, Hinted: 2, Unhinted: 1, Failed: 1}, result.Summary)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Row)
	assert.Empty(t, result.RunID)
}

func TestGenerate_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input", func(t *testing.T) {
		_, err := execute(t, "", "generate", filepath.Join(dir, "nope.csv"), "-o", filepath.Join(dir, "out.csv"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("missing query column", func(t *testing.T) {
		_, err := execute(t, "", "generate", testdata("job.csv"), "--query-col", "sql", "-o", filepath.Join(dir, "out.csv"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, err := execute(t, "", "generate", testdata("job.csv"), "--idx-target", "both", "-o", filepath.Join(dir, "out.csv"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown catalog", func(t *testing.T) {
		_, err := execute(t, "", "generate", testdata("job.csv"), "--catalog", filepath.Join(dir, "imdb.yaml"), "-o", filepath.Join(dir, "out.csv"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
