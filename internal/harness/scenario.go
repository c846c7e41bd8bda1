package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// Scenario defines a conformance scenario: one hint configuration and the
// queries it is exercised with.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional YAML or CUE schema catalog. Relative paths are
	// resolved against the scenario file. Empty selects the naming
	// convention.
	Catalog string `yaml:"catalog,omitempty"`

	// Policy is the selection policy. Empty fields take the defaults.
	Policy PolicySpec `yaml:"policy,omitempty"`

	// Renderer names the hint dialect. Empty selects pg_hint_plan.
	Renderer string `yaml:"renderer,omitempty"`

	// StripEmpty suppresses empty hint comments. Defaults to true.
	StripEmpty *bool `yaml:"strip_empty,omitempty"`

	// Properties restricts the invariants checked on every case.
	// Empty checks all of them.
	Properties []string `yaml:"properties,omitempty"`

	// Cases are the queries under test.
	Cases []Case `yaml:"cases"`
}

// PolicySpec is the textual form of a selector.Policy.
type PolicySpec struct {
	IdxTarget string `yaml:"idx_target,omitempty"`
	NLJScope  string `yaml:"nlj_scope,omitempty"`
}

// Case is one query and the decision expected for it.
type Case struct {
	Name   string `yaml:"name"`
	Query  string `yaml:"query"`
	Expect Expect `yaml:"expect"`
}

// Expect holds the expectations of a case. Unset fields are not checked.
type Expect struct {
	// Status is hinted, unhinted or failed.
	Status string `yaml:"status,omitempty"`

	// Hint is the exact serialized comment.
	Hint *string `yaml:"hint,omitempty"`

	// Directives lists the expected directives in order.
	Directives []DirectiveExpect `yaml:"directives,omitempty"`

	// Skipped is the expected number of soft-skipped candidate edges.
	Skipped *int `yaml:"skipped,omitempty"`

	// Error is the expected failure kind: parse or ambiguity.
	Error string `yaml:"error,omitempty"`
}

// DirectiveExpect describes one expected directive. Subquery is optional.
type DirectiveExpect struct {
	Subquery  string `yaml:"subquery,omitempty"`
	IndexScan string `yaml:"index_scan"`
	Probe     string `yaml:"probe"`
}

// Failure kinds accepted in Expect.Error.
const (
	ErrorParse     = "parse"
	ErrorAmbiguity = "ambiguity"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// policy returns the parsed selection policy.
func (s *Scenario) policy() (selector.Policy, error) {
	return selector.NewPolicy(s.Policy.IdxTarget, s.Policy.NLJScope)
}

// options returns the serialization options.
func (s *Scenario) options() (hint.Options, error) {
	r, err := hint.LookupRenderer(s.Renderer)
	if err != nil {
		return hint.Options{}, err
	}
	strip := true
	if s.StripEmpty != nil {
		strip = *s.StripEmpty
	}
	return hint.Options{StripEmpty: strip, Renderer: r}, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	if _, err := s.policy(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if _, err := s.options(); err != nil {
		return err
	}

	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}

	for _, p := range s.Properties {
		if !slices.Contains(AllProperties, p) {
			return fmt.Errorf("unknown property %q (valid: %v)", p, AllProperties)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if err := validateCase(i, c); err != nil {
			return err
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true
	}

	return nil
}

// validateCase validates a single case and its expectations.
func validateCase(index int, c Case) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if c.Query == "" {
		return fmt.Errorf("cases[%d]: query is required", index)
	}

	e := c.Expect
	switch workload.Status(e.Status) {
	case "", workload.StatusHinted, workload.StatusUnhinted, workload.StatusFailed:
	default:
		return fmt.Errorf("cases[%d].expect: unknown status %q", index, e.Status)
	}

	switch e.Error {
	case "", ErrorParse, ErrorAmbiguity:
	default:
		return fmt.Errorf("cases[%d].expect: unknown error kind %q", index, e.Error)
	}
	if e.Error != "" && e.Status != "" && workload.Status(e.Status) != workload.StatusFailed {
		return fmt.Errorf("cases[%d].expect: error %q requires status failed", index, e.Error)
	}

	for j, d := range e.Directives {
		if d.IndexScan == "" || d.Probe == "" {
			return fmt.Errorf("cases[%d].expect.directives[%d]: index_scan and probe are required", index, j)
		}
	}
	if e.Skipped != nil && *e.Skipped < 0 {
		return fmt.Errorf("cases[%d].expect: skipped must be non-negative", index)
	}

	return nil
}
