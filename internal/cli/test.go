package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden directory, defaults to <scenario dir>/golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Cases  int      `json:"cases"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against the hint generator.

Each scenario fixes a catalog, a policy and a renderer and lists queries
with the decision expected for them. Every case is also checked against
the selector's invariants. When a golden file exists for a scenario, the
full decision snapshot must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  ueshint test ./scenarios
  ueshint test ./scenarios --filter "job_*"
  ueshint test ./scenarios --update
  ueshint test job_fk_first.yaml --golden-dir ./golden --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default <scenario dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	// Only the logging setup is needed here.
	if _, err := opts.loadConfig(cmd); err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			formatter.Error(ErrCodeReadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}

	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := runScenario(opts, file)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if err := outputTests(formatter, result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

// findScenarioFiles returns path itself if it is a file, or every YAML
// file below it if it is a directory. Golden directories are skipped.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(d.Name(), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads and executes one scenario file, then checks it
// against its golden file if there is one.
func runScenario(opts *TestOptions, file string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name
	sr.Cases = len(scenario.Cases)

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(file), "golden")
	}
	goldenPath := harness.GoldenPath(goldenDir, scenario.Name)

	switch {
	case opts.Update:
		if err := harness.WriteGolden(result, goldenPath); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		}
	default:
		if _, err := os.Stat(goldenPath); err == nil {
			match, err := harness.CompareGolden(result, goldenPath)
			switch {
			case err != nil:
				sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
			case !match:
				sr.Errors = append(sr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
			}
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

func outputTests(f *OutputFormatter, r TestResult) error {
	if f.JSON() {
		return f.Success(r)
	}

	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(f.Writer, "%s %s (%d cases)\n", f.Paint("✓", color.FgGreen), s.Name, s.Cases)
			continue
		}
		fmt.Fprintf(f.Writer, "%s %s\n", f.Paint("✗", color.FgRed), s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	}

	fmt.Fprintf(f.Writer, "\n%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	return nil
}
