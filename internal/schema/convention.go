package schema

import (
	"strings"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// Convention resolves roles from column names alone: the column "id" is a
// primary key and "<something>_id" is a foreign key. It is the fallback
// when no catalog is configured and matches the IMDB/JOB naming scheme.
type Convention struct {
	// PKColumn overrides the primary-key column name. Empty means "id".
	PKColumn string

	// FKSuffix overrides the foreign-key suffix. Empty means "_id".
	FKSuffix string
}

// Role classifies a single column name.
func (c Convention) Role(column string) querymodel.KeyRole {
	pk, suffix := c.PKColumn, c.FKSuffix
	if pk == "" {
		pk = "id"
	}
	if suffix == "" {
		suffix = "_id"
	}

	column = querymodel.NormalizeIdent(column)
	switch {
	case column == pk:
		return querymodel.RolePK
	case strings.HasSuffix(column, suffix) && len(column) > len(suffix):
		return querymodel.RoleFK
	default:
		return querymodel.RoleNone
	}
}

// ResolveRoles implements querymodel.KeyResolver.
func (c Convention) ResolveRoles(edge querymodel.JoinEdge) (querymodel.KeyRole, querymodel.KeyRole, error) {
	return c.Role(edge.Left.Column), c.Role(edge.Right.Column), nil
}
