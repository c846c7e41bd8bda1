package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/testutil"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{
		RunIDs: testutil.NewFixedRunIDGenerator("run-1"),
		Now:    testutil.NewStepClock(testStart, time.Second).Now,
	}
	cmd := NewRootCommandWithOptions(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "error"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func testdata(name string) string {
	return filepath.Join("testdata", name)
}
