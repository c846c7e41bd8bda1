package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/config"
	"github.com/rbergm/diploma-thesis/internal/store"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// GenerateResult is the payload of a finished generate command.
type GenerateResult struct {
	Input    string           `json:"input"`
	Output   string           `json:"output"`
	RunID    string           `json:"run_id,omitempty"`
	Policy   string           `json:"policy"`
	Renderer string           `json:"renderer"`
	Written  int              `json:"written"`
	Summary  workload.Summary `json:"summary"`
	Failures []RowFailure     `json:"failures,omitempty"`
}

// RowFailure describes one failed workload row.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <input.csv>",
		Short: "Generate hints for a CSV workload",
		Long: `Generate Index-NLJ hints for every query of a CSV workload.

The input CSV needs a header row and one query per row in the query
column. The output CSV contains all input columns plus the hint column.
Rows that fail to parse or have ambiguous key roles are reported and,
depending on --on-error, written with an empty hint, dropped, or abort
the batch.

Examples:
  ueshint generate job.csv
  ueshint generate job.csv --idx-target pk --nlj-scope all -o job-hinted.csv
  ueshint generate job.csv --catalog imdb.cue --renderer tidb --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	addHintFlags(cmd)
	addWorkloadFlags(cmd)

	return cmd
}

func runGenerate(ctx context.Context, opts *RootOptions, input string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	gen, err := cfg.Generator()
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	table, queries, err := readWorkload(input, cfg.QueryCol)
	if err != nil {
		formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read workload", err)
	}
	formatter.VerboseLog("Read %d queries from %s", len(queries), input)

	var (
		runLog *store.Store
		runID  string
	)
	if cfg.DB != "" {
		runLog, runID, err = beginRun(ctx, opts, cfg, gen.Policy().String(), input)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open run log", err)
		}
		defer runLog.Close()
	}

	log.Info().
		Str("input", input).
		Int("rows", len(queries)).
		Str("policy", gen.Policy().String()).
		Str("renderer", cfg.Renderer).
		Msg("generating hints")

	onErr := cfg.OnErrorPolicy()
	res, err := workload.Run(ctx, gen, queries, workload.Options{Workers: cfg.Workers, OnError: onErr})
	if err != nil {
		if runLog != nil {
			// The run is closed with the rows finished before the stop.
			if ferr := finishRun(context.WithoutCancel(ctx), opts, runLog, runID, res); ferr != nil {
				log.Error().Err(ferr).Str("run_id", runID).Msg("failed to record aborted run")
			}
		}
		var rowErr *workload.RowError
		if errors.As(err, &rowErr) {
			formatter.Error(ErrCodeAborted, err.Error(), map[string]any{"row": rowErr.Seq})
			return WrapExitError(ExitFailure, "batch aborted", err)
		}
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "batch failed", err)
	}

	written := res.Output(onErr)
	if err := writeWorkload(cfg.Out, table, cfg.HintCol, written); err != nil {
		formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if runLog != nil {
		if err := finishRun(ctx, opts, runLog, runID, res); err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	result := GenerateResult{
		Input:    input,
		Output:   cfg.Out,
		RunID:    runID,
		Policy:   gen.Policy().String(),
		Renderer: cfg.Renderer,
		Written:  len(written),
		Summary:  res.Summary,
	}
	for _, o := range res.Outcomes {
		if o.Status == workload.StatusFailed {
			result.Failures = append(result.Failures, RowFailure{Row: o.Seq, Error: o.Err.Error()})
		}
	}

	log.Info().
		Int("hinted", res.Summary.Hinted).
		Int("unhinted", res.Summary.Unhinted).
		Int("failed", res.Summary.Failed).
		Msg("hints generated")

	if err := outputGenerate(formatter, result); err != nil {
		return err
	}

	if res.Summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d rows failed", res.Summary.Failed, res.Summary.Total))
	}
	return nil
}

func readWorkload(path, queryCol string) (*workload.Table, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	table, err := workload.ReadTable(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	queries, err := table.Queries(queryCol)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, queries, nil
}

func writeWorkload(path string, table *workload.Table, hintCol string, outcomes []workload.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := workload.WriteTable(f, table, hintCol, outcomes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func beginRun(ctx context.Context, opts *RootOptions, cfg *config.Config, policy, input string) (*store.Store, string, error) {
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, "", err
	}

	run := store.Run{
		ID:        opts.runIDs().Generate(),
		Input:     input,
		Output:    cfg.Out,
		Mode:      cfg.Mode,
		Policy:    policy,
		Renderer:  cfg.Renderer,
		StartedAt: opts.now(),
	}
	if err := st.BeginRun(ctx, run); err != nil {
		st.Close()
		return nil, "", err
	}
	log.Debug().Str("run_id", run.ID).Str("db", cfg.DB).Msg("run log opened")
	return st, run.ID, nil
}

func finishRun(ctx context.Context, opts *RootOptions, st *store.Store, runID string, res *workload.Result) error {
	rows, err := workload.Records(runID, res.Outcomes)
	if err != nil {
		return err
	}
	if err := st.WriteRows(ctx, rows); err != nil {
		return err
	}
	return st.FinishRun(ctx, runID, res.Summary.Counts(), opts.now())
}

func outputGenerate(f *OutputFormatter, r GenerateResult) error {
	if f.JSON() {
		return f.Success(r)
	}

	fmt.Fprintf(f.Writer, "Wrote %s (%d of %d rows)\n", r.Output, r.Written, r.Summary.Total)
	fmt.Fprintf(f.Writer, "Policy: %s, renderer: %s\n", r.Policy, r.Renderer)
	if r.RunID != "" {
		fmt.Fprintf(f.Writer, "Run: %s\n", r.RunID)
	}

	f.Table([]string{"Status", "Rows"}, [][]string{
		{f.Paint(string(workload.StatusHinted), color.FgGreen), fmt.Sprint(r.Summary.Hinted)},
		{f.Paint(string(workload.StatusUnhinted), color.FgYellow), fmt.Sprint(r.Summary.Unhinted)},
		{f.Paint(string(workload.StatusFailed), color.FgRed), fmt.Sprint(r.Summary.Failed)},
	})

	for _, fail := range r.Failures {
		fmt.Fprintf(f.Writer, "%s row %d: %s\n", f.Paint("✗", color.FgRed), fail.Row, oneLine(fail.Error))
	}
	return nil
}

// oneLine collapses whitespace so multi-line SQL fits one output line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
