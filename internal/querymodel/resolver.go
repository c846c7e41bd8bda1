package querymodel

// KeyResolver resolves the key role of both endpoints of a join edge.
//
// Implementations report RoleNone for endpoints they know nothing about and
// leave ambiguity detection to Query.KeyRoles. An error return is reserved
// for resolvers that cannot answer at all.
type KeyResolver interface {
	ResolveRoles(edge JoinEdge) (left, right KeyRole, err error)
}

// ResolverFunc adapts a function to the KeyResolver interface.
type ResolverFunc func(edge JoinEdge) (left, right KeyRole, err error)

// ResolveRoles calls f(edge).
func (f ResolverFunc) ResolveRoles(edge JoinEdge) (KeyRole, KeyRole, error) {
	return f(edge)
}

// ColumnKey identifies a column of a base relation.
type ColumnKey struct {
	Table  string
	Column string
}

func newColumnKey(table, column string) ColumnKey {
	return ColumnKey{Table: NormalizeIdent(table), Column: NormalizeIdent(column)}
}

// StaticResolver is a lookup table keyed by (table, column), typically
// populated by the front end while parsing.
type StaticResolver map[ColumnKey]KeyRole

// NewStaticResolver creates an empty StaticResolver.
func NewStaticResolver() StaticResolver {
	return make(StaticResolver)
}

// Set records the role of table.column. Lookups are case-insensitive.
func (s StaticResolver) Set(table, column string, role KeyRole) StaticResolver {
	s[newColumnKey(table, column)] = role
	return s
}

// Role returns the recorded role of col, RoleNone if unknown.
func (s StaticResolver) Role(col ColumnRef) KeyRole {
	return s[newColumnKey(col.Table.Name, col.Column)]
}

// ResolveRoles implements KeyResolver.
func (s StaticResolver) ResolveRoles(edge JoinEdge) (KeyRole, KeyRole, error) {
	return s.Role(edge.Left), s.Role(edge.Right), nil
}
