// Package testutil provides query-model fixtures and deterministic
// generators shared by package tests.
package testutil

import (
	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// Col builds a column reference.
func Col(name, alias, column string) querymodel.ColumnRef {
	return querymodel.ColumnRef{Table: querymodel.TableRef{Name: name, Alias: alias}, Column: column}
}

// ChainQuery builds one depth-1 subquery "sq" over tables a, b, c with
// edges (a,b) then (b,c):
//
//	a.b_id (fk) = b.id (pk)
//	b.c_id (fk) = c.id (pk)
//
// The outer query joins t to sq. (b,c) is the innermost edge.
func ChainQuery() *querymodel.Query {
	b := querymodel.NewBuilder("SELECT COUNT(*) FROM t JOIN (SELECT a.t_id FROM a JOIN b ON a.b_id = b.id JOIN c ON b.c_id = c.id) AS sq ON t.id = sq.t_id")
	root := b.Root()
	root.AddTable(querymodel.TableRef{Name: "t"})
	root.AddTable(querymodel.TableRef{Alias: "sq"})
	root.AddEdge(Col("t", "", "id"), Col("", "sq", "t_id"), "=")

	sq := root.Subquery("sq")
	sq.AddTable(querymodel.TableRef{Name: "a"})
	sq.AddTable(querymodel.TableRef{Name: "b"})
	sq.AddTable(querymodel.TableRef{Name: "c"})
	sq.AddEdge(Col("a", "", "b_id"), Col("b", "", "id"), "=")
	sq.AddEdge(Col("b", "", "c_id"), Col("c", "", "id"), "=")

	return mustBuild(b, ChainResolver())
}

// ChainResolver resolves the key roles used by ChainQuery.
func ChainResolver() querymodel.StaticResolver {
	return querymodel.NewStaticResolver().
		Set("t", "id", querymodel.RolePK).
		Set("a", "t_id", querymodel.RoleFK).
		Set("a", "b_id", querymodel.RoleFK).
		Set("b", "id", querymodel.RolePK).
		Set("b", "c_id", querymodel.RoleFK).
		Set("c", "id", querymodel.RolePK)
}

// JOBQuery builds a UES-style query over the IMDB schema with two sibling
// subqueries and one nested subquery:
//
//	sq_mc: movie_companies mc, company_name cn, company_type ct
//	sq_ci: cast_info ci, name n
//	  sq_an: aka_name an, name n2 (depth 2, correlated to ci)
func JOBQuery() *querymodel.Query {
	b := querymodel.NewBuilder("SELECT MIN(t.title) FROM title AS t JOIN (...) AS sq_mc ON ... JOIN (...) AS sq_ci ON ...")
	root := b.Root()
	root.AddTable(querymodel.TableRef{Name: "title", Alias: "t"})
	root.AddTable(querymodel.TableRef{Alias: "sq_mc"})
	root.AddTable(querymodel.TableRef{Alias: "sq_ci"})
	root.AddEdge(Col("title", "t", "id"), Col("", "sq_mc", "movie_id"), "=")
	root.AddEdge(Col("title", "t", "id"), Col("", "sq_ci", "movie_id"), "=")

	mc := root.Subquery("sq_mc")
	mc.AddTable(querymodel.TableRef{Name: "movie_companies", Alias: "mc"})
	mc.AddTable(querymodel.TableRef{Name: "company_name", Alias: "cn"})
	mc.AddTable(querymodel.TableRef{Name: "company_type", Alias: "ct"})
	mc.AddEdge(Col("movie_companies", "mc", "company_id"), Col("company_name", "cn", "id"), "=")
	mc.AddEdge(Col("movie_companies", "mc", "company_type_id"), Col("company_type", "ct", "id"), "=")

	ci := root.Subquery("sq_ci")
	ci.AddTable(querymodel.TableRef{Name: "cast_info", Alias: "ci"})
	ci.AddTable(querymodel.TableRef{Name: "name", Alias: "n"})
	ci.AddEdge(Col("cast_info", "ci", "person_id"), Col("name", "n", "id"), "=")

	an := ci.Subquery("sq_an")
	an.AddTable(querymodel.TableRef{Name: "aka_name", Alias: "an"})
	an.AddTable(querymodel.TableRef{Name: "name", Alias: "n2"})
	an.AddEdge(Col("aka_name", "an", "person_id"), Col("name", "n2", "id"), "=")
	an.AddEdge(Col("aka_name", "an", "person_id"), Col("cast_info", "ci", "person_id"), "=")

	return mustBuild(b, JOBResolver())
}

// JOBResolver resolves the key roles of the IMDB tables used by JOBQuery.
func JOBResolver() querymodel.StaticResolver {
	return querymodel.NewStaticResolver().
		Set("title", "id", querymodel.RolePK).
		Set("movie_companies", "movie_id", querymodel.RoleFK).
		Set("movie_companies", "company_id", querymodel.RoleFK).
		Set("movie_companies", "company_type_id", querymodel.RoleFK).
		Set("company_name", "id", querymodel.RolePK).
		Set("company_type", "id", querymodel.RolePK).
		Set("cast_info", "movie_id", querymodel.RoleFK).
		Set("cast_info", "person_id", querymodel.RoleFK).
		Set("name", "id", querymodel.RolePK).
		Set("aka_name", "person_id", querymodel.RoleFK)
}

// FlatQuery builds a query without subqueries.
func FlatQuery() *querymodel.Query {
	b := querymodel.NewBuilder("SELECT * FROM title t JOIN movie_companies mc ON t.id = mc.movie_id")
	root := b.Root()
	root.AddTable(querymodel.TableRef{Name: "title", Alias: "t"})
	root.AddTable(querymodel.TableRef{Name: "movie_companies", Alias: "mc"})
	root.AddEdge(Col("title", "t", "id"), Col("movie_companies", "mc", "movie_id"), "=")
	return mustBuild(b, JOBResolver())
}

// SingleEdgeQuery builds a depth-1 subquery with one edge left = right and
// resolves the two endpoints to the given roles.
func SingleEdgeQuery(leftRole, rightRole querymodel.KeyRole) *querymodel.Query {
	b := querymodel.NewBuilder("")
	sq := b.Root().Subquery("sq")
	sq.AddTable(querymodel.TableRef{Name: "l"})
	sq.AddTable(querymodel.TableRef{Name: "r"})
	sq.AddEdge(Col("l", "", "k"), Col("r", "", "k"), "=")

	resolver := querymodel.NewStaticResolver()
	if leftRole != querymodel.RoleNone {
		resolver.Set("l", "k", leftRole)
	}
	if rightRole != querymodel.RoleNone {
		resolver.Set("r", "k", rightRole)
	}
	return mustBuild(b, resolver)
}

func mustBuild(b *querymodel.Builder, r querymodel.KeyResolver) *querymodel.Query {
	q, err := b.Build(r)
	if err != nil {
		panic(err)
	}
	return q
}
