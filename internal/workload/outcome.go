package workload

import (
	"fmt"
	"strings"

	"github.com/rbergm/diploma-thesis/internal/selector"
)

// Status is the result class of one row.
type Status string

const (
	StatusHinted   Status = "hinted"   // at least one directive
	StatusUnhinted Status = "unhinted" // parsed and selected, nothing to hint
	StatusFailed   Status = "failed"   // parse error or schema ambiguity
)

// Outcome is the result of processing one workload row.
type Outcome struct {
	Seq        int // 0-based row position, header excluded
	Query      string
	Hint       string
	Status     Status
	Directives []selector.Directive
	Skipped    []selector.Skip
	Warnings   []string
	Err        error
}

// OnError decides how failed rows appear in the output.
type OnError string

const (
	OnErrorEmpty OnError = "empty" // keep the row, write an empty hint
	OnErrorSkip  OnError = "skip"  // drop the row from the output
	OnErrorAbort OnError = "abort" // stop the batch at the first failure
)

// ValidOnError lists the accepted OnError values.
var ValidOnError = []string{string(OnErrorEmpty), string(OnErrorSkip), string(OnErrorAbort)}

// ParseOnError validates an on-error value (case-insensitive).
func ParseOnError(s string) (OnError, error) {
	switch v := OnError(strings.ToLower(strings.TrimSpace(s))); v {
	case OnErrorEmpty, OnErrorSkip, OnErrorAbort:
		return v, nil
	}
	return "", fmt.Errorf("invalid on-error %q: must be one of %s", s, strings.Join(ValidOnError, ", "))
}

// Summary counts outcomes by status.
type Summary struct {
	Total    int `json:"total"`
	Hinted   int `json:"hinted"`
	Unhinted int `json:"unhinted"`
	Failed   int `json:"failed"`
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusHinted:
			s.Hinted++
		case StatusUnhinted:
			s.Unhinted++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
