// Package schema resolves primary-key and foreign-key roles of join
// endpoints from a declared schema catalog or from a naming convention.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// TableSpec declares the key columns of one table.
type TableSpec struct {
	// PrimaryKey is the primary-key column, empty if none.
	PrimaryKey string `yaml:"primary_key" json:"primary_key,omitempty"`

	// ForeignKeys maps a column to the "table.column" it references.
	ForeignKeys map[string]string `yaml:"foreign_keys" json:"foreign_keys,omitempty"`
}

// Reference is a parsed foreign-key target.
type Reference struct {
	Table  string
	Column string
}

// Catalog is a declared schema. It implements querymodel.KeyResolver.
type Catalog struct {
	tables map[string]table
}

type table struct {
	name string
	pk   string
	fks  map[string]Reference
}

// CatalogFile is the on-disk representation of a catalog (YAML or CUE).
//
//	tables:
//	  title:
//	    primary_key: id
//	  movie_companies:
//	    primary_key: id
//	    foreign_keys:
//	      movie_id: title.id
//	      company_id: company_name.id
type CatalogFile struct {
	Tables map[string]TableSpec `yaml:"tables" json:"tables"`
}

// NewCatalog builds a catalog from table specs. Identifiers are
// normalized with querymodel.NormalizeIdent.
func NewCatalog(tables map[string]TableSpec) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]table, len(tables))}

	for _, name := range sortedKeys(tables) {
		spec := tables[name]
		norm := querymodel.NormalizeIdent(name)
		if _, dup := c.tables[norm]; dup {
			return nil, fmt.Errorf("table %q declared twice", name)
		}

		t := table{
			name: norm,
			pk:   querymodel.NormalizeIdent(spec.PrimaryKey),
			fks:  make(map[string]Reference, len(spec.ForeignKeys)),
		}
		for _, column := range sortedKeys(spec.ForeignKeys) {
			ref, err := ParseReference(spec.ForeignKeys[column])
			if err != nil {
				return nil, fmt.Errorf("table %q column %q: %w", name, column, err)
			}
			t.fks[querymodel.NormalizeIdent(column)] = ref
		}
		c.tables[norm] = t
	}

	return c, nil
}

// ParseReference parses "table.column".
func ParseReference(s string) (Reference, error) {
	tbl, col, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || tbl == "" || col == "" || strings.Contains(col, ".") {
		return Reference{}, fmt.Errorf("invalid foreign key reference %q: expected table.column", s)
	}
	return Reference{
		Table:  querymodel.NormalizeIdent(tbl),
		Column: querymodel.NormalizeIdent(col),
	}, nil
}

// Tables returns the normalized table names, sorted.
func (c *Catalog) Tables() []string {
	return sortedKeys(c.tables)
}

// RoleOf returns the role col plays when joined against other.
//
// A foreign-key column referencing other's table is FK. Otherwise the
// table's primary key is PK, any other foreign-key column is FK, and
// everything else is RoleNone.
func (c *Catalog) RoleOf(col querymodel.ColumnRef, other querymodel.TableRef) querymodel.KeyRole {
	t, ok := c.tables[querymodel.NormalizeIdent(col.Table.Name)]
	if !ok {
		return querymodel.RoleNone
	}
	column := querymodel.NormalizeIdent(col.Column)

	ref, isFK := t.fks[column]
	if isFK && ref.Table == querymodel.NormalizeIdent(other.Name) {
		return querymodel.RoleFK
	}
	if t.pk != "" && column == t.pk {
		return querymodel.RolePK
	}
	if isFK {
		return querymodel.RoleFK
	}
	return querymodel.RoleNone
}

// ResolveRoles implements querymodel.KeyResolver.
func (c *Catalog) ResolveRoles(edge querymodel.JoinEdge) (querymodel.KeyRole, querymodel.KeyRole, error) {
	return c.RoleOf(edge.Left, edge.Right.Table), c.RoleOf(edge.Right, edge.Left.Table), nil
}

// Check reports referential problems: foreign keys that point to unknown
// tables or to a column other than the referenced table's primary key.
// All problems are collected.
func (c *Catalog) Check() []error {
	var errs []error
	for _, name := range c.Tables() {
		t := c.tables[name]
		for _, column := range sortedKeys(t.fks) {
			ref := t.fks[column]
			target, ok := c.tables[ref.Table]
			if !ok {
				errs = append(errs, fmt.Errorf("%s.%s references unknown table %q", name, column, ref.Table))
				continue
			}
			if target.pk != ref.Column {
				errs = append(errs, fmt.Errorf("%s.%s references %s.%s which is not the primary key", name, column, ref.Table, ref.Column))
			}
		}
	}
	return errs
}

// Stats summarizes a catalog.
type Stats struct {
	Tables      int `json:"tables"`
	PrimaryKeys int `json:"primary_keys"`
	ForeignKeys int `json:"foreign_keys"`
}

// Stats counts tables and declared keys.
func (c *Catalog) Stats() Stats {
	s := Stats{Tables: len(c.tables)}
	for _, t := range c.tables {
		if t.pk != "" {
			s.PrimaryKeys++
		}
		s.ForeignKeys += len(t.fks)
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
