package harness

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/schema"
	"github.com/rbergm/diploma-thesis/internal/sqlparse"
	"github.com/rbergm/diploma-thesis/internal/workload"
)

// Run executes a scenario and returns the result.
//
// Execution errors (unreadable catalog, invalid configuration) are returned
// as error. Expectation and property failures are collected in the Result
// and never abort the remaining cases.
func Run(scenario *Scenario) (*Result, error) {
	resolver, err := scenarioResolver(scenario)
	if err != nil {
		return nil, err
	}
	policy, err := scenario.policy()
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	opts, err := scenario.options()
	if err != nil {
		return nil, err
	}
	gen, err := workload.NewGenerator(resolver, policy, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	properties := scenario.Properties
	if len(properties) == 0 {
		properties = AllProperties
	}

	result := NewResult(scenario.Name)
	for i, c := range scenario.Cases {
		o := gen.Generate(i, c.Query)
		cr := CaseResult{
			Name:       c.Name,
			Status:     o.Status,
			Hint:       o.Hint,
			Directives: o.Directives,
			Skipped:    len(o.Skipped),
		}
		if o.Err != nil {
			cr.Error = o.Err.Error()
			cr.ErrorKind = errorKind(o.Err)
		}
		result.Cases = append(result.Cases, cr)

		for _, err := range checkExpect(c, cr) {
			result.AddError(err.Error())
		}

		if o.Status == workload.StatusFailed {
			continue
		}
		q, err := gen.Parse(c.Query)
		if err != nil {
			return nil, fmt.Errorf("case %s: reparse: %w", c.Name, err)
		}
		for _, err := range CheckProperties(q, policy, opts, properties) {
			result.AddError(fmt.Sprintf("case %s: %v", c.Name, err))
		}
	}

	log.Debug().
		Str("scenario", scenario.Name).
		Int("cases", len(scenario.Cases)).
		Bool("pass", result.Pass).
		Msg("scenario executed")

	return result, nil
}

func scenarioResolver(s *Scenario) (querymodel.KeyResolver, error) {
	if s.Catalog == "" {
		return schema.Convention{}, nil
	}
	cat, errs := schema.LoadCatalog(s.Catalog)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load catalog %s: %w", s.Catalog, errors.Join(errs...))
	}
	return cat, nil
}

// errorKind classifies a per-case failure for Expect.Error.
func errorKind(err error) string {
	var pe *sqlparse.ParseError
	switch {
	case querymodel.IsSchemaAmbiguity(err):
		return ErrorAmbiguity
	case errors.As(err, &pe):
		return ErrorParse
	default:
		return "other"
	}
}
