package harness

import (
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// CaseResult is the observed decision for one case.
type CaseResult struct {
	Name       string               `json:"name"`
	Status     workload.Status      `json:"status"`
	Hint       string               `json:"hint,omitempty"`
	Directives []selector.Directive `json:"-"`
	Skipped    int                  `json:"skipped"`
	Error      string               `json:"error,omitempty"`
	ErrorKind  string               `json:"error_kind,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the name of the executed scenario.
	Scenario string `json:"scenario"`

	// Pass is true if every expectation and property held.
	Pass bool `json:"pass"`

	// Cases holds the observed decisions in case order.
	Cases []CaseResult `json:"cases"`

	// Errors contains expectation and property failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
