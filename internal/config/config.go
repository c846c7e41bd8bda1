// Package config loads ueshint settings with viper.
//
// Precedence, highest first: command-line flags, UESHINT_* environment
// variables, the config file, defaults. Nested keys map to environment
// variables with "." replaced by "_" (log.level -> UESHINT_LOG_LEVEL).
package config

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/logger"
	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/schema"
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "UESHINT"

// ModeUESIdxNLJ is the only supported hint mode: enforce an Index-NLJ in
// the subqueries of UES-rewritten queries.
const ModeUESIdxNLJ = "ues-idxnlj"

// ValidModes lists the accepted mode values.
var ValidModes = []string{ModeUESIdxNLJ}

// Config holds all settings of a ueshint invocation.
type Config struct {
	Mode       string `mapstructure:"mode" yaml:"mode" json:"mode"`
	IdxTarget  string `mapstructure:"idx_target" yaml:"idx_target" json:"idx_target"`
	NLJScope   string `mapstructure:"nlj_scope" yaml:"nlj_scope" json:"nlj_scope"`
	StripEmpty bool   `mapstructure:"strip_empty" yaml:"strip_empty" json:"strip_empty"`
	Renderer   string `mapstructure:"renderer" yaml:"renderer" json:"renderer"`
	QueryCol   string `mapstructure:"query_col" yaml:"query_col" json:"query_col"`
	HintCol    string `mapstructure:"hint_col" yaml:"hint_col" json:"hint_col"`
	Out        string `mapstructure:"out" yaml:"out" json:"out"`
	Catalog    string `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Workers    int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OnError    string `mapstructure:"on_error" yaml:"on_error" json:"on_error"`
	DB         string `mapstructure:"db" yaml:"db" json:"db"`
	Log        Log    `mapstructure:"log" yaml:"log" json:"log"`
}

// Log configures the zerolog logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeUESIdxNLJ)
	v.SetDefault("idx_target", selector.DefaultIdxTarget.String())
	v.SetDefault("nlj_scope", string(selector.DefaultNLJScope))
	v.SetDefault("strip_empty", true)
	v.SetDefault("renderer", hint.DefaultRenderer)
	v.SetDefault("query_col", "query")
	v.SetDefault("hint_col", "hint")
	v.SetDefault("out", "out.csv")
	v.SetDefault("catalog", "")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("on_error", string(workload.OnErrorEmpty))
	v.SetDefault("db", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads cfgFile (if not empty), the environment and v's bound flags
// into a Config. The result is validated.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading from config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated setting and reports all problems.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(ValidModes, c.Mode) {
		errs = append(errs, fmt.Errorf("invalid mode %q: must be one of %v", c.Mode, ValidModes))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := hint.LookupRenderer(c.Renderer); err != nil {
		errs = append(errs, err)
	}
	if _, err := workload.ParseOnError(c.OnError); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid workers %d: must be >= 0", c.Workers))
	}
	if _, err := logger.New(io.Discard, c.Log.Level, c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	if c.QueryCol == "" {
		errs = append(errs, errors.New("query_col must not be empty"))
	}
	if c.HintCol == "" {
		errs = append(errs, errors.New("hint_col must not be empty"))
	}

	return errors.Join(errs...)
}

// Policy returns the selection policy.
func (c *Config) Policy() (selector.Policy, error) {
	return selector.NewPolicy(c.IdxTarget, c.NLJScope)
}

// HintOptions returns the serialization options.
func (c *Config) HintOptions() (hint.Options, error) {
	r, err := hint.LookupRenderer(c.Renderer)
	if err != nil {
		return hint.Options{}, err
	}
	return hint.Options{StripEmpty: c.StripEmpty, Renderer: r}, nil
}

// OnErrorPolicy returns the parsed on_error setting.
func (c *Config) OnErrorPolicy() workload.OnError {
	v, err := workload.ParseOnError(c.OnError)
	if err != nil {
		return workload.OnErrorEmpty
	}
	return v
}

// Resolver returns the key-role source: the catalog file if configured,
// otherwise the naming convention.
func (c *Config) Resolver() (querymodel.KeyResolver, error) {
	if c.Catalog == "" {
		return schema.Convention{}, nil
	}
	cat, errs := schema.LoadCatalog(c.Catalog)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load catalog %s: %w", c.Catalog, errors.Join(errs...))
	}
	return cat, nil
}

// Generator builds the per-query pipeline from the configuration.
func (c *Config) Generator() (*workload.Generator, error) {
	resolver, err := c.Resolver()
	if err != nil {
		return nil, err
	}
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	opts, err := c.HintOptions()
	if err != nil {
		return nil, err
	}
	return workload.NewGenerator(resolver, policy, opts)
}
