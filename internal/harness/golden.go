package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rbergm/diploma-thesis/internal/canonical"
)

// Snapshot returns the canonical JSON form of a result: every case with its
// status, hint, skip count and directives. Error messages are left out so
// that parser wording does not churn golden files; the error kind is kept.
func Snapshot(result *Result) ([]byte, error) {
	cases := make([]any, len(result.Cases))
	for i, c := range result.Cases {
		directives := make([]any, len(c.Directives))
		for j, d := range c.Directives {
			directives[j] = canonical.DirectiveObject(d)
		}
		obj := map[string]any{
			"name":       c.Name,
			"status":     string(c.Status),
			"skipped":    c.Skipped,
			"directives": directives,
		}
		if c.Hint != "" {
			obj["hint"] = c.Hint
		}
		if c.ErrorKind != "" {
			obj["error_kind"] = c.ErrorKind
		}
		cases[i] = obj
	}

	return canonical.Marshal(map[string]any{
		"scenario": result.Scenario,
		"cases":    cases,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Expectation failures and
// snapshot mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}

// GoldenPath returns the golden file of a scenario inside dir.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// CompareGolden reports whether the snapshot of result equals the golden
// file at path.
func CompareGolden(result *Result, path string) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(result)
	if err != nil {
		return false, fmt.Errorf("failed to snapshot result: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// WriteGolden stores the snapshot of result as the golden file at path.
func WriteGolden(result *Result, path string) error {
	data, err := Snapshot(result)
	if err != nil {
		return fmt.Errorf("failed to snapshot result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
