package querymodel

import (
	"fmt"
	"iter"
	"strings"
)

// TableRef is a relation appearing in a query, optionally aliased.
type TableRef struct {
	Name  string // Relation name (e.g., "movie_companies")
	Alias string // Alias from the FROM clause, empty if none
}

// Identity returns the alias if present, else the table name.
func (t TableRef) Identity() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// String renders the reference the way it appears in a FROM clause.
func (t TableRef) String() string {
	if t.Alias != "" && t.Alias != t.Name {
		return t.Name + " AS " + t.Alias
	}
	return t.Name
}

// ColumnRef is a column qualified by the table reference it belongs to.
type ColumnRef struct {
	Table  TableRef
	Column string
}

func (c ColumnRef) String() string {
	return c.Table.Identity() + "." + c.Column
}

// JoinEdge is a predicate connecting two table references.
//
// Edges are undirected: Left and Right only record the order of the source
// predicate. Key is insensitive to that order.
type JoinEdge struct {
	Left  ColumnRef
	Right ColumnRef
	Op    string // Comparison operator, "=" for equi-joins
	Seq   int    // Declaration order within the owning Block, starting at 0
}

// Key identifies the edge independent of endpoint order.
func (e JoinEdge) Key() string {
	l, r := e.Left.String(), e.Right.String()
	if r < l {
		l, r = r, l
	}
	return l + e.Op + r
}

// Has reports whether ref is one of the edge's endpoints.
func (e JoinEdge) Has(ref TableRef) bool {
	return e.Left.Table.Identity() == ref.Identity() || e.Right.Table.Identity() == ref.Identity()
}

// Other returns the endpoint opposite to ref.
func (e JoinEdge) Other(ref TableRef) (TableRef, bool) {
	switch ref.Identity() {
	case e.Left.Table.Identity():
		return e.Right.Table, true
	case e.Right.Table.Identity():
		return e.Left.Table, true
	}
	return TableRef{}, false
}

func (e JoinEdge) String() string {
	op := e.Op
	if op == "" {
		op = "="
	}
	return fmt.Sprintf("%s %s %s", e.Left, op, e.Right)
}

// KeyRole classifies an endpoint of a join edge.
type KeyRole int

const (
	RoleNone KeyRole = iota // No key metadata for this endpoint
	RolePK                  // Endpoint column is the referenced primary key
	RoleFK                  // Endpoint column references a primary key
)

func (r KeyRole) String() string {
	switch r {
	case RolePK:
		return "pk"
	case RoleFK:
		return "fk"
	default:
		return "none"
	}
}

// ParseKeyRole converts "pk" or "fk" to a KeyRole.
func ParseKeyRole(s string) (KeyRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pk":
		return RolePK, nil
	case "fk":
		return RoleFK, nil
	default:
		return RoleNone, fmt.Errorf("invalid key role %q: must be pk or fk", s)
	}
}

// Block is one query scope. Depth 0 is the outer query, every deeper Block
// is a subquery.
type Block struct {
	alias        string
	depth        int
	parent       *Block
	tables       []TableRef
	edges        []JoinEdge
	correlations []JoinEdge
	children     []*Block
}

// Alias is the name the subquery is bound to in its parent, empty for the
// outer query and for unaliased WHERE-clause subqueries.
func (b *Block) Alias() string { return b.alias }

// Depth is the nesting depth, 0 for the outer query.
func (b *Block) Depth() int { return b.depth }

// Parent returns the enclosing Block, nil for the outer query.
func (b *Block) Parent() *Block { return b.parent }

// IsSubquery reports whether the Block is nested in another one.
func (b *Block) IsSubquery() bool { return b.depth > 0 }

// Tables returns the table references declared in this Block.
func (b *Block) Tables() []TableRef {
	return append([]TableRef(nil), b.tables...)
}

// JoinEdges returns the Block's join edges in declaration order.
func (b *Block) JoinEdges() []JoinEdge {
	return append([]JoinEdge(nil), b.edges...)
}

// Correlations returns the predicates linking this Block to an enclosing one.
func (b *Block) Correlations() []JoinEdge {
	return append([]JoinEdge(nil), b.correlations...)
}

// Children returns the subqueries directly nested in this Block.
func (b *Block) Children() []*Block {
	return append([]*Block(nil), b.children...)
}

// Name returns a display name for logs and diagnostics.
func (b *Block) Name() string {
	if b.depth == 0 {
		return "<outer>"
	}
	if b.alias != "" {
		return b.alias
	}
	return fmt.Sprintf("<subquery@%d>", b.depth)
}

// lookup finds a table reference by identity in this Block.
func (b *Block) lookup(identity string) (TableRef, bool) {
	for _, t := range b.tables {
		if t.Identity() == identity {
			return t, true
		}
	}
	return TableRef{}, false
}

// Query is an immutable parsed query.
type Query struct {
	text     string
	root     *Block
	resolver KeyResolver
}

// Text returns the original query text.
func (q *Query) Text() string { return q.text }

// Root returns the outer query Block.
func (q *Query) Root() *Block { return q.root }

// Subqueries yields every Block at depth >= 1, outer-to-inner and
// left-to-right within one depth. The sequence can be ranged over any
// number of times.
func (q *Query) Subqueries() iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		if q.root == nil {
			return
		}
		level := q.root.children
		for len(level) > 0 {
			var next []*Block
			for _, b := range level {
				if !yield(b) {
					return
				}
				next = append(next, b.children...)
			}
			level = next
		}
	}
}

// SubqueryCount returns the number of Blocks Subqueries yields.
func (q *Query) SubqueryCount() int {
	n := 0
	for range q.Subqueries() {
		n++
	}
	return n
}

// KeyRole resolves the role ref plays on edge.
func (q *Query) KeyRole(edge JoinEdge, ref TableRef) (KeyRole, error) {
	left, right, err := q.KeyRoles(edge)
	if err != nil {
		return RoleNone, err
	}
	switch ref.Identity() {
	case edge.Left.Table.Identity():
		return left, nil
	case edge.Right.Table.Identity():
		return right, nil
	}
	return RoleNone, fmt.Errorf("table %q is not an endpoint of edge %s", ref.Identity(), edge)
}

// KeyRoles resolves the roles of both endpoints of edge.
//
// Returns a *SchemaAmbiguityError when neither endpoint carries key
// metadata or when both claim the primary-key role.
func (q *Query) KeyRoles(edge JoinEdge) (left, right KeyRole, err error) {
	if q.resolver == nil {
		return RoleNone, RoleNone, NewSchemaAmbiguityError(edge, "no key resolver attached to query")
	}
	left, right, err = q.resolver.ResolveRoles(edge)
	if err != nil {
		return RoleNone, RoleNone, err
	}
	if left == RoleNone && right == RoleNone {
		return RoleNone, RoleNone, NewSchemaAmbiguityError(edge, "neither endpoint carries key metadata")
	}
	if left == RolePK && right == RolePK {
		return RoleNone, RoleNone, NewSchemaAmbiguityError(edge, "both endpoints claim the primary-key role")
	}
	return left, right, nil
}
