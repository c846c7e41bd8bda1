package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rbergm/diploma-thesis/internal/schema"
)

// CatalogResult holds validate-catalog results.
type CatalogResult struct {
	Valid  bool           `json:"valid"`
	Stats  *schema.Stats  `json:"stats,omitempty"`
	Errors []CatalogIssue `json:"errors,omitempty"`
}

// CatalogIssue is one catalog problem.
type CatalogIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCatalogCommand creates the validate-catalog command.
func NewValidateCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-catalog <catalog.yaml|catalog.cue>",
		Short: "Check a schema catalog",
		Long: `Load a schema catalog and check that every foreign key references
the primary key of a declared table. All problems are reported at once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCatalog(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, errs := schema.LoadCatalog(path)
	if len(errs) > 0 {
		result := CatalogResult{Valid: false}
		for _, err := range errs {
			issue := CatalogIssue{Code: ErrCodeGeneric, Message: err.Error()}
			var le *schema.LoadError
			if errors.As(err, &le) {
				issue.Code = le.Code
				issue.Message = le.Message
				if le.Pos.IsValid() {
					issue.Line = le.Pos.Line()
				}
			}
			result.Errors = append(result.Errors, issue)
		}
		if err := outputCatalog(formatter, path, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("catalog has %d error(s)", len(result.Errors)))
	}

	stats := cat.Stats()
	formatter.VerboseLog("Tables: %v", cat.Tables())
	return outputCatalog(formatter, path, CatalogResult{Valid: true, Stats: &stats})
}

func outputCatalog(f *OutputFormatter, path string, r CatalogResult) error {
	if f.JSON() {
		if r.Valid {
			return f.Success(r)
		}
		return f.Error(r.Errors[0].Code, fmt.Sprintf("catalog has %d error(s)", len(r.Errors)), r.Errors)
	}

	if r.Valid {
		fmt.Fprintf(f.Writer, "%s Catalog valid: %d tables, %d primary keys, %d foreign keys\n",
			f.Paint("✓", color.FgGreen), r.Stats.Tables, r.Stats.PrimaryKeys, r.Stats.ForeignKeys)
		return nil
	}

	fmt.Fprintf(f.Writer, "%s Catalog %s has %d error(s):\n", f.Paint("✗", color.FgRed), path, len(r.Errors))
	for _, issue := range r.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(f.Writer, "  [%s] line %d: %s\n", issue.Code, issue.Line, issue.Message)
		} else {
			fmt.Fprintf(f.Writer, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
	return nil
}
