package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/canonical"
	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/selector"
)

// ExplainResult describes the hint decision for one query.
type ExplainResult struct {
	Policy      string          `json:"policy"`
	Renderer    string          `json:"renderer"`
	Subqueries  int             `json:"subqueries"`
	Directives  []DirectiveView `json:"directives"`
	Skipped     []SkipView      `json:"skipped,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Hint        string          `json:"hint"`
	Fingerprint string          `json:"fingerprint"`
}

// DirectiveView is the printable form of a selector.Directive.
type DirectiveView struct {
	Subquery  string `json:"subquery"`
	Depth     int    `json:"depth"`
	Edge      string `json:"edge"`
	IndexScan string `json:"index_scan"`
	Probe     string `json:"probe"`
}

// SkipView is the printable form of a selector.Skip.
type SkipView struct {
	Subquery string `json:"subquery"`
	Edge     string `json:"edge"`
	Left     string `json:"left"`
	Right    string `json:"right"`
	Reason   string `json:"reason"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [sql|-]",
		Short: "Show the hint decision for a single query",
		Long: `Parse one query and show which subquery joins are forced into an
Index-NLJ, which partner is index-scanned, which candidate joins were
skipped, and the resulting hint comment.

The query is read from the argument, or from stdin when the argument is
"-" or missing.

Examples:
  ueshint explain "SELECT ... FROM title t JOIN (SELECT ...) AS sq ON ..."
  ueshint explain --idx-target pk --nlj-scope all - < q1a.sql
  ueshint explain --format json --catalog imdb.yaml - < q1a.sql`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args, cmd)
		},
	}

	addHintFlags(cmd)

	return cmd
}

func runExplain(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sql, err := readQuery(args, cmd.InOrStdin())
	if err != nil {
		formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read query", err)
	}

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

	q, err := gen.Parse(sql)
	if err != nil {
		formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to parse query", err)
	}

	sel, err := selector.Select(q, gen.Policy())
	if err != nil {
		code := ErrCodeGeneric
		if querymodel.IsSchemaAmbiguity(err) {
			code = ErrCodeAmbiguity
		}
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "selection failed", err)
	}

	fp, err := canonical.Fingerprint(sel.Directives)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to fingerprint directives", err)
	}

	hq := hint.Annotate(q, sel.Directives)
	result := ExplainResult{
		Policy:      gen.Policy().String(),
		Renderer:    cfg.Renderer,
		Subqueries:  sel.Subqueries,
		Directives:  []DirectiveView{},
		Warnings:    querymodel.Validate(q).Warnings,
		Hint:        hint.Serialize(hq, gen.Options()),
		Fingerprint: fp,
	}
	for _, d := range sel.Directives {
		result.Directives = append(result.Directives, DirectiveView{
			Subquery:  d.Subquery,
			Depth:     d.Depth,
			Edge:      d.Edge.String(),
			IndexScan: d.IndexScan.Identity(),
			Probe:     d.Probe.Identity(),
		})
	}
	for _, s := range sel.Skipped {
		result.Skipped = append(result.Skipped, SkipView{
			Subquery: s.Subquery,
			Edge:     s.Edge.String(),
			Left:     s.Left.String(),
			Right:    s.Right.String(),
			Reason:   string(s.Reason),
		})
	}

	return outputExplain(formatter, result)
}

func readQuery(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return "", fmt.Errorf("no query given")
	}
	return sql, nil
}

func outputExplain(f *OutputFormatter, r ExplainResult) error {
	if f.JSON() {
		return f.Success(r)
	}

	fmt.Fprintf(f.Writer, "Policy: %s, renderer: %s\n", r.Policy, r.Renderer)
	fmt.Fprintf(f.Writer, "Subqueries: %d, directives: %d\n", r.Subqueries, len(r.Directives))

	if len(r.Directives) > 0 {
		rows := make([][]string, len(r.Directives))
		for i, d := range r.Directives {
			rows[i] = []string{d.Subquery, fmt.Sprint(d.Depth), d.Edge, f.Paint(d.IndexScan, color.FgGreen), d.Probe}
		}
		f.Table([]string{"Subquery", "Depth", "Edge", "Index Scan", "Probe"}, rows)
	}

	for _, s := range r.Skipped {
		fmt.Fprintf(f.Writer, "%s %s: %s (%s/%s): %s\n", f.Paint("skipped", color.FgYellow), s.Subquery, s.Edge, s.Left, s.Right, s.Reason)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(f.Writer, "%s %s\n", f.Paint("warning", color.FgYellow), w)
	}

	if r.Hint == "" {
		fmt.Fprintln(f.Writer, "No hint.")
		return nil
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintln(f.Writer, r.Hint)
	return nil
}
