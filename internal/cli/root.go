// Package cli implements the ueshint command line.
package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rbergm/diploma-thesis/internal/config"
	"github.com/rbergm/diploma-thesis/internal/logger"
	"github.com/rbergm/diploma-thesis/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	NoColor    bool
	LogLevel   string
	LogFormat  string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	RunIDs store.RunIDGenerator

	// Now allows overriding the clock (for testing). If nil, time.Now.
	Now func() time.Time

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ueshint CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, which
// lets tests inject RunIDs and Now.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ueshint",
		Short: "ueshint - Index-NLJ hints for UES subqueries",
		Long: `Generate optimizer hints that force an Index-Nested-Loop-Join inside
the subqueries of UES-rewritten SQL workloads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "logging level debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "logging format [text|json]")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCatalogCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		Color:     !opts.NoColor && !color.NoColor,
	}
}

// loadConfig binds the flags of cmd (local and inherited) to config keys,
// loads the configuration and configures logging from it.
func (opts *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if opts.viper == nil {
		opts.viper = viper.New()
	}
	v := opts.viper

	var bindErr error
	bind := func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
			bindErr = err
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	if bindErr != nil {
		return nil, bindErr
	}

	cfg, err := config.Load(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLogLevel(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagKey maps a flag name to its config key: log-level -> log.level,
// idx-target -> idx_target.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + rest
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (opts *RootOptions) runIDs() store.RunIDGenerator {
	if opts.RunIDs != nil {
		return opts.RunIDs
	}
	return store.UUIDv7Generator{}
}

func (opts *RootOptions) now() time.Time {
	if opts.Now != nil {
		return opts.Now()
	}
	return time.Now()
}
