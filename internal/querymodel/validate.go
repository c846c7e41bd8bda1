package querymodel

import "fmt"

// ValidationResult contains structural findings about a query model.
//
// None of the findings prevent hint generation. They explain why a query
// produced fewer directives than expected.
type ValidationResult struct {
	// Eligible indicates the query has at least one subquery with a join edge.
	Eligible bool

	// Warnings lists structural oddities, in traversal order.
	Warnings []string
}

// Validate inspects a query for structures that contribute no hints.
//
// Checks:
//  1. Subqueries without join edges
//  2. Duplicate table identities within one Block
//  3. Join edges whose endpoints are the same table reference
//  4. Queries without any subquery
//
// Validate is a pure function with no side effects.
func Validate(q *Query) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateQuery(q)

	return ValidationResult{
		Eligible: v.eligible,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
	eligible bool
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q *Query) {
	if q == nil || q.root == nil {
		v.addWarning("nil query")
		return
	}

	v.validateBlock(q.root)

	count := 0
	for blk := range q.Subqueries() {
		count++
		v.validateBlock(blk)
		if len(blk.edges) == 0 {
			v.addWarning("Subquery %s has no join edges", blk.Name())
			continue
		}
		v.eligible = true
	}
	if count == 0 {
		v.addWarning("Query has no subqueries")
	}
}

func (v *validator) validateBlock(blk *Block) {
	seen := make(map[string]bool, len(blk.tables))
	for _, t := range blk.tables {
		if seen[t.Identity()] {
			v.addWarning("Block %s declares table %q more than once", blk.Name(), t.Identity())
		}
		seen[t.Identity()] = true
	}

	for _, e := range blk.edges {
		if e.Left.Table.Identity() == e.Right.Table.Identity() {
			v.addWarning("Block %s has self-join predicate %s", blk.Name(), e)
		}
	}
}
