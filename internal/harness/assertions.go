package harness

import (
	"fmt"
	"strings"

	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// AssertionError is returned when an expectation does not hold.
type AssertionError struct {
	Case     string // Case name
	Field    string // Expectation that failed
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("case %s: %s: expected %s, got %s", e.Case, e.Field, e.Expected, e.Actual)
}

// checkExpect compares an observed case result with its expectations.
// Every mismatch is reported, not just the first one.
func checkExpect(c Case, cr CaseResult) []error {
	var errs []error
	fail := func(field, expected, actual string) {
		errs = append(errs, &AssertionError{Case: c.Name, Field: field, Expected: expected, Actual: actual})
	}
	e := c.Expect

	status := workload.Status(e.Status)
	if status == "" && e.Error != "" {
		status = workload.StatusFailed
	}
	if status != "" && status != cr.Status {
		fail("status", string(status), describeStatus(cr))
	}

	if e.Error != "" && e.Error != cr.ErrorKind {
		fail("error", e.Error, orNone(cr.ErrorKind))
	}

	if e.Hint != nil && *e.Hint != cr.Hint {
		fail("hint", fmt.Sprintf("%q", *e.Hint), fmt.Sprintf("%q", cr.Hint))
	}

	if e.Skipped != nil && *e.Skipped != cr.Skipped {
		fail("skipped", fmt.Sprint(*e.Skipped), fmt.Sprint(cr.Skipped))
	}

	if e.Directives != nil && !matchDirectives(e.Directives, cr.Directives) {
		fail("directives", formatExpected(e.Directives), formatActual(cr.Directives))
	}

	return errs
}

func matchDirectives(expected []DirectiveExpect, actual []selector.Directive) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i, want := range expected {
		got := actual[i]
		if want.IndexScan != got.IndexScan.Identity() || want.Probe != got.Probe.Identity() {
			return false
		}
		if want.Subquery != "" && want.Subquery != got.Subquery {
			return false
		}
	}
	return true
}

func formatExpected(ds []DirectiveExpect) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = fmt.Sprintf("%s->%s", d.Probe, d.IndexScan)
		if d.Subquery != "" {
			parts[i] = d.Subquery + ":" + parts[i]
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatActual(ds []selector.Directive) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = fmt.Sprintf("%s:%s->%s", d.Subquery, d.Probe.Identity(), d.IndexScan.Identity())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func describeStatus(cr CaseResult) string {
	if cr.Error != "" {
		return fmt.Sprintf("%s (%s)", cr.Status, cr.Error)
	}
	return string(cr.Status)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
