package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/store"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// RunView is the printable form of a logged run.
type RunView struct {
	ID         string       `json:"id"`
	Input      string       `json:"input"`
	Output     string       `json:"output"`
	Policy     string       `json:"policy"`
	Renderer   string       `json:"renderer"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at,omitempty"`
	Counts     store.Counts `json:"counts"`
}

// RowView is the printable form of a logged row.
type RowView struct {
	Seq    int64  `json:"seq"`
	Status string `json:"status"`
	Hint   string `json:"hint,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunDetail is a run with its rows.
type RunDetail struct {
	Run  RunView   `json:"run"`
	Rows []RowView `json:"rows"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List logged batch runs",
		Long: `List the runs recorded by "generate --db", or show the rows of one run.

Examples:
  ueshint runs --db runs.db
  ueshint runs --db runs.db 0190f6c2-7d1e-7c3a-9f1b-2b8e5a4d6c10 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd.Context(), rootOpts, args, cmd)
		},
	}

	cmd.Flags().String("db", "", "path to SQLite run log (required, or set UESHINT_DB)")

	return cmd
}

func runRuns(ctx context.Context, opts *RootOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cfg.DB == "" {
		formatter.Error(ErrCodeConfig, "no run log given: use --db", nil)
		return NewExitError(ExitCommandError, "no run log given")
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		views := make([]RunView, len(runs))
		for i, r := range runs {
			views[i] = runView(r)
		}
		return outputRuns(formatter, views)
	}

	run, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	rows, err := st.ReadRows(ctx, run.ID)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read rows", err)
	}

	detail := RunDetail{Run: runView(run), Rows: make([]RowView, len(rows))}
	for i, r := range rows {
		detail.Rows[i] = RowView{Seq: r.Seq, Status: r.Status, Hint: r.Hint, Error: r.Error}
	}
	return outputRunDetail(formatter, detail)
}

func runView(r store.Run) RunView {
	v := RunView{
		ID:        r.ID,
		Input:     r.Input,
		Output:    r.Output,
		Policy:    r.Policy,
		Renderer:  r.Renderer,
		StartedAt: r.StartedAt.Format(time.RFC3339),
		Counts:    r.Counts,
	}
	if r.Finished() {
		v.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return v
}

func outputRuns(f *OutputFormatter, runs []RunView) error {
	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs logged.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID, r.StartedAt, r.Input, r.Policy,
			fmt.Sprint(r.Counts.Hinted), fmt.Sprint(r.Counts.Unhinted), fmt.Sprint(r.Counts.Failed),
		}
	}
	f.Table([]string{"Run", "Started", "Input", "Policy", "Hinted", "Unhinted", "Failed"}, rows)
	return nil
}

func outputRunDetail(f *OutputFormatter, d RunDetail) error {
	if f.JSON() {
		return f.Success(d)
	}

	fmt.Fprintf(f.Writer, "Run %s: %s -> %s (%s, %s)\n", d.Run.ID, d.Run.Input, d.Run.Output, d.Run.Policy, d.Run.Renderer)
	rows := make([][]string, len(d.Rows))
	for i, r := range d.Rows {
		detail := oneLine(r.Hint)
		if r.Error != "" {
			detail = oneLine(r.Error)
		}
		rows[i] = []string{fmt.Sprint(r.Seq), f.Paint(r.Status, statusColor(r.Status)), detail}
	}
	f.Table([]string{"Row", "Status", "Hint / Error"}, rows)
	return nil
}

func statusColor(status string) color.Attribute {
	switch workload.Status(status) {
	case workload.StatusHinted:
		return color.FgGreen
	case workload.StatusFailed:
		return color.FgRed
	default:
		return color.FgYellow
	}
}
