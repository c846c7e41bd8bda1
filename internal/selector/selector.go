// Package selector decides which join edges of UES subqueries are forced
// into an Index-Nested-Loop-Join and which partner is index-scanned.
package selector

import (
	"fmt"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// Directive is one selection decision: on Edge, IndexScan is accessed via
// an index while Probe drives the nested loop.
type Directive struct {
	Subquery  string // Display name of the owning subquery
	Depth     int    // Nesting depth of the owning subquery
	Edge      querymodel.JoinEdge
	IndexScan querymodel.TableRef
	Probe     querymodel.TableRef
}

func (d Directive) String() string {
	return fmt.Sprintf("%s: NLJ(%s -> idx %s) on %s", d.Subquery, d.Probe.Identity(), d.IndexScan.Identity(), d.Edge)
}

// SkipReason explains why a candidate edge produced no directive.
type SkipReason string

const (
	// SkipNoMatch means neither endpoint plays the targeted role.
	SkipNoMatch SkipReason = "no endpoint matches idx-target"
	// SkipBothMatch means both endpoints play the targeted role.
	SkipBothMatch SkipReason = "both endpoints match idx-target"
)

// Skip records a candidate edge that was passed over. Skips are expected
// on workloads that mix schemas and are not errors.
type Skip struct {
	Subquery string
	Edge     querymodel.JoinEdge
	Left     querymodel.KeyRole
	Right    querymodel.KeyRole
	Reason   SkipReason
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: skipped %s (%s/%s): %s", s.Subquery, s.Edge, s.Left, s.Right, s.Reason)
}

// Selection is the outcome of a selection pass over one query.
type Selection struct {
	// Directives in subquery traversal order, then edge declaration order.
	Directives []Directive

	// Skipped lists candidate edges that produced no directive.
	Skipped []Skip

	// Subqueries is the number of subqueries visited.
	Subqueries int
}

// Empty reports whether no directive was produced.
func (s Selection) Empty() bool {
	return len(s.Directives) == 0
}

// Select walks the subqueries of q and produces Index-NLJ directives
// according to p.
//
// Subqueries are visited outer-to-inner, left-to-right. With ScopeFirst only
// the innermost (last declared) edge of each subquery is a candidate, with
// ScopeAll every edge is. For each candidate the endpoint whose role equals
// p.IdxTarget becomes the index-scan side.
//
// A *querymodel.SchemaAmbiguityError from role resolution aborts the whole
// query: the returned Selection is empty. Select is a pure function.
func Select(q *querymodel.Query, p Policy) (Selection, error) {
	if q == nil {
		return Selection{}, fmt.Errorf("select: nil query")
	}
	if err := p.Validate(); err != nil {
		return Selection{}, fmt.Errorf("select: %w", err)
	}

	var sel Selection

	for blk := range q.Subqueries() {
		sel.Subqueries++
		seen := make(map[string]bool)

		for _, edge := range candidates(blk, p.NLJScope) {
			if seen[edge.Key()] {
				continue
			}
			seen[edge.Key()] = true

			left, right, err := q.KeyRoles(edge)
			if err != nil {
				return Selection{}, fmt.Errorf("select %s: %w", blk.Name(), err)
			}

			leftMatch := left == p.IdxTarget
			rightMatch := right == p.IdxTarget

			switch {
			case leftMatch && !rightMatch:
				sel.Directives = append(sel.Directives, newDirective(blk, edge, edge.Left.Table, edge.Right.Table))
			case rightMatch && !leftMatch:
				sel.Directives = append(sel.Directives, newDirective(blk, edge, edge.Right.Table, edge.Left.Table))
			default:
				reason := SkipNoMatch
				if leftMatch && rightMatch {
					reason = SkipBothMatch
				}
				sel.Skipped = append(sel.Skipped, Skip{
					Subquery: blk.Name(),
					Edge:     edge,
					Left:     left,
					Right:    right,
					Reason:   reason,
				})
			}
		}
	}

	return sel, nil
}

// candidates returns the edges of blk eligible under scope. The innermost
// edge of a subquery is the one declared last.
func candidates(blk *querymodel.Block, scope NLJScope) []querymodel.JoinEdge {
	edges := blk.JoinEdges()
	if len(edges) == 0 {
		return nil
	}
	if scope == ScopeFirst {
		return edges[len(edges)-1:]
	}
	return edges
}

func newDirective(blk *querymodel.Block, edge querymodel.JoinEdge, idx, probe querymodel.TableRef) Directive {
	return Directive{
		Subquery:  blk.Name(),
		Depth:     blk.Depth(),
		Edge:      edge,
		IndexScan: idx,
		Probe:     probe,
	}
}
