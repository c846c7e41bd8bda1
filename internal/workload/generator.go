package workload

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rbergm/diploma-thesis/internal/hint"
	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/sqlparse"
)

// Generator runs the per-query pipeline: parse, validate, select,
// annotate, serialize. It is safe for concurrent use.
type Generator struct {
	resolver querymodel.KeyResolver
	policy   selector.Policy
	opts     hint.Options
	parsers  sync.Pool
}

// NewGenerator creates a Generator. The policy is validated up front so a
// misconfiguration fails before any row is processed.
func NewGenerator(resolver querymodel.KeyResolver, policy selector.Policy, opts hint.Options) (*Generator, error) {
	if resolver == nil {
		return nil, errors.New("generator: key resolver is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	g := &Generator{resolver: resolver, policy: policy, opts: opts}
	g.parsers.New = func() any { return sqlparse.New() }
	return g, nil
}

// Policy returns the selection policy.
func (g *Generator) Policy() selector.Policy { return g.policy }

// Options returns the serialization options.
func (g *Generator) Options() hint.Options { return g.opts }

// Parse turns query text into a query model using a pooled parser.
func (g *Generator) Parse(sql string) (*querymodel.Query, error) {
	p := g.parsers.Get().(*sqlparse.Parser)
	defer g.parsers.Put(p)
	return p.Parse(sql, g.resolver)
}

// Generate processes one query. Errors are reported in the Outcome, never
// returned: a failed row has Status StatusFailed, an empty Hint and Err set.
func (g *Generator) Generate(seq int, sql string) Outcome {
	out := Outcome{Seq: seq, Query: sql}

	q, err := g.Parse(sql)
	if err != nil {
		return failed(out, err)
	}
	out.Warnings = querymodel.Validate(q).Warnings

	sel, err := selector.Select(q, g.policy)
	if err != nil {
		return failed(out, err)
	}
	out.Directives = sel.Directives
	out.Skipped = sel.Skipped

	hq := hint.Annotate(q, sel.Directives)
	out.Hint = hint.Serialize(hq, g.opts)
	out.Status = StatusUnhinted
	if !hq.Empty() {
		out.Status = StatusHinted
	}
	return out
}

func failed(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	out.Hint = ""
	return out
}
