// Package querymodel provides the immutable structural representation of a
// parsed SQL query that the hint generator works on.
//
// A Query is a tree of Blocks. The root Block (depth 0) is the outer query;
// every Block below it is a subquery, typically a UES subquery that joins a
// foreign-key table against the primary-key tables it references:
//
//	SELECT ...
//	FROM title t
//	JOIN (SELECT mc.movie_id FROM movie_companies mc
//	      JOIN company_name cn ON mc.company_id = cn.id) AS sq   <- depth 1
//	  ON t.id = sq.movie_id
//
// Each Block owns the tables it declares and the join edges connecting two
// of them, in the order they were declared. Predicates that connect a table
// of the Block with a table of an enclosing Block are kept as correlation
// edges and never take part in hint selection.
//
// TRAVERSAL ORDER:
//
// Query.Subqueries yields Blocks outer-to-inner (by depth), left-to-right
// within one depth. Block.JoinEdges yields edges in declaration order, so
// the innermost edge of a subquery is its last one.
//
// KEY ROLES:
//
// Whether an endpoint plays the primary-key or the foreign-key role on an
// edge is not stored on the model. A KeyResolver attached at Build time
// answers that question, which lets callers back it with a declared schema
// catalog, a naming convention or anything else.
//
// A Query is safe for concurrent readers once built.
package querymodel
