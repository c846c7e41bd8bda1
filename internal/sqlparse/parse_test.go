package sqlparse

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/schema"
)

const uesQuery = `SELECT MIN(t.title)
FROM title AS t
JOIN (SELECT mc.movie_id
      FROM movie_companies AS mc, company_name AS cn, company_type AS ct
      WHERE mc.company_id = cn.id
        AND mc.company_type_id = ct.id
        AND cn.country_code = '[us]') AS sq_mc
  ON t.id = sq_mc.movie_id
WHERE t.production_year > 2000`

func blocks(q *querymodel.Query) []*querymodel.Block {
	return slices.Collect(q.Subqueries())
}

func edgeStrings(es []querymodel.JoinEdge) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.String()
	}
	return out
}

func TestParse_DerivedTable(t *testing.T) {
	q, err := Parse(uesQuery, schema.Convention{})
	require.NoError(t, err)

	assert.Equal(t, uesQuery, q.Text())
	assert.Equal(t, []querymodel.TableRef{
		{Name: "title", Alias: "t"},
		{Alias: "sq_mc"},
	}, q.Root().Tables())
	assert.Equal(t, []string{"t.id = sq_mc.movie_id"}, edgeStrings(q.Root().JoinEdges()))

	subs := blocks(q)
	require.Len(t, subs, 1)
	sq := subs[0]
	assert.Equal(t, "sq_mc", sq.Alias())
	assert.Equal(t, 1, sq.Depth())
	assert.Len(t, sq.Tables(), 3)
	assert.Equal(t, []string{
		"mc.company_id = cn.id",
		"mc.company_type_id = ct.id",
	}, edgeStrings(sq.JoinEdges()))
}

func TestParse_WhereSubqueries(t *testing.T) {
	sql := `SELECT COUNT(*) FROM title t
WHERE t.id IN (SELECT mc.movie_id FROM movie_companies mc JOIN company_name cn ON mc.company_id = cn.id)
  AND EXISTS (SELECT 1 FROM cast_info ci, name n WHERE ci.person_id = n.id AND ci.movie_id = t.id)`

	q, err := Parse(sql, schema.Convention{})
	require.NoError(t, err)

	subs := blocks(q)
	require.Len(t, subs, 2)

	assert.Equal(t, "", subs[0].Alias())
	assert.Equal(t, []string{"mc.company_id = cn.id"}, edgeStrings(subs[0].JoinEdges()))

	assert.Equal(t, []string{"ci.person_id = n.id"}, edgeStrings(subs[1].JoinEdges()))
	assert.Equal(t, []string{"ci.movie_id = t.id"}, edgeStrings(subs[1].Correlations()))
}

func TestParse_SubqueriesOutsideWhere(t *testing.T) {
	const inner = "SELECT COUNT(*) FROM movie_companies mc JOIN company_name cn ON mc.company_id = cn.id WHERE mc.movie_id = t.id"

	tests := []struct {
		name string
		sql  string
	}{
		{"select list", "SELECT t.title, (" + inner + ") AS n FROM title t"},
		{"group by", "SELECT COUNT(*) FROM title t GROUP BY (" + inner + ")"},
		{"having", "SELECT t.kind_id FROM title t GROUP BY t.kind_id HAVING COUNT(*) > (" + inner + ")"},
		{"order by", "SELECT t.title FROM title t ORDER BY (" + inner + ")"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.sql, schema.Convention{})
			require.NoError(t, err)

			subs := blocks(q)
			require.Len(t, subs, 1)
			assert.Equal(t, 1, subs[0].Depth())
			assert.Equal(t, []string{"mc.company_id = cn.id"}, edgeStrings(subs[0].JoinEdges()))
			assert.Equal(t, []string{"mc.movie_id = t.id"}, edgeStrings(subs[0].Correlations()))
		})
	}
}

func TestParse_SubqueryClauseOrder(t *testing.T) {
	sql := `SELECT (SELECT COUNT(*) FROM a JOIN b ON a.b_id = b.id) AS n
FROM title t JOIN (SELECT c.movie_id FROM c JOIN d ON c.d_id = d.id) AS sq ON t.id = sq.movie_id
WHERE EXISTS (SELECT 1 FROM e JOIN f ON e.f_id = f.id)
GROUP BY t.kind_id
HAVING COUNT(*) > (SELECT COUNT(*) FROM g JOIN h ON g.h_id = h.id)`

	q, err := Parse(sql, schema.Convention{})
	require.NoError(t, err)

	var got []string
	for b := range q.Subqueries() {
		got = append(got, edgeStrings(b.JoinEdges())...)
	}
	assert.Equal(t, []string{"a.b_id = b.id", "c.d_id = d.id", "e.f_id = f.id", "g.h_id = h.id"}, got)
}

func TestParse_NestedSubqueries(t *testing.T) {
	sql := `SELECT * FROM title t JOIN (
  SELECT ci.movie_id FROM cast_info ci JOIN (
    SELECT an.person_id FROM aka_name an JOIN name n ON an.person_id = n.id
  ) AS sq_an ON ci.person_id = sq_an.person_id
) AS sq_ci ON t.id = sq_ci.movie_id`

	q, err := Parse(sql, schema.Convention{})
	require.NoError(t, err)

	subs := blocks(q)
	require.Len(t, subs, 2)
	assert.Equal(t, "sq_ci", subs[0].Alias())
	assert.Equal(t, "sq_an", subs[1].Alias())
	assert.Equal(t, 2, subs[1].Depth())
	assert.Equal(t, []string{"ci.person_id = sq_an.person_id"}, edgeStrings(subs[0].JoinEdges()))
	assert.Equal(t, []string{"an.person_id = n.id"}, edgeStrings(subs[1].JoinEdges()))
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	q, err := Parse("SELECT * FROM Title AS T JOIN (SELECT MC.Movie_ID FROM Movie_Companies MC JOIN Company_Name CN ON MC.Company_ID = CN.ID) AS SQ ON T.ID = SQ.Movie_ID", schema.Convention{})
	require.NoError(t, err)

	subs := blocks(q)
	require.Len(t, subs, 1)
	assert.Equal(t, "sq", subs[0].Alias())
	assert.Equal(t, []string{"mc.company_id = cn.id"}, edgeStrings(subs[0].JoinEdges()))
	assert.Equal(t, querymodel.TableRef{Name: "movie_companies", Alias: "mc"}, subs[0].Tables()[0])
}

func TestParse_QuotedIdentifiersKeepCase(t *testing.T) {
	sql := "SELECT * FROM title t JOIN (SELECT `MC`.movie_id FROM movie_companies AS `MC` JOIN Company_Name CN ON `MC`.company_id = CN.id) AS sq ON t.id = sq.movie_id"
	q, err := Parse(sql, schema.Convention{})
	require.NoError(t, err)

	subs := blocks(q)
	require.Len(t, subs, 1)
	assert.Equal(t, []querymodel.TableRef{
		{Name: "movie_companies", Alias: "MC"},
		{Name: "company_name", Alias: "cn"},
	}, subs[0].Tables())
	assert.Equal(t, []string{"MC.company_id = cn.id"}, edgeStrings(subs[0].JoinEdges()))

	left, right, err := q.KeyRoles(subs[0].JoinEdges()[0])
	require.NoError(t, err)
	assert.Equal(t, querymodel.RoleFK, left)
	assert.Equal(t, querymodel.RolePK, right)
}

func TestQuotedIdents(t *testing.T) {
	sql := "SELECT `A`.x, 'not `B`', \"nor `C`\" FROM `we``ird` /* `D` */ -- `E`\n# `F`\nJOIN `G` ON 1"
	assert.Equal(t, map[string]bool{"A": true, "we`ird": true, "G": true}, quotedIdents(sql))
	assert.Empty(t, quotedIdents("SELECT 'it''s', 'a\\'b' FROM t"))
}

func TestParse_IgnoresFilters(t *testing.T) {
	sql := "SELECT * FROM a JOIN b ON a.b_id = b.id AND a.x = 3 AND a.y = a.z WHERE b.name = 'x' OR a.b_id = b.id"
	q, err := Parse(sql, schema.Convention{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b_id = b.id"}, edgeStrings(q.Root().JoinEdges()))
	assert.Zero(t, q.SubqueryCount())
}

func TestParse_UnqualifiedColumns(t *testing.T) {
	q, err := Parse("SELECT * FROM t WHERE t.id IN (SELECT t_id FROM a WHERE b_id = t_id)", schema.Convention{})
	require.NoError(t, err)
	subs := blocks(q)
	require.Len(t, subs, 1)
	assert.Empty(t, subs[0].JoinEdges())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		message string
	}{
		{"syntax", "SELEC * FROM", "syntax error"},
		{"not a select", "DELETE FROM title WHERE id = 1", "unsupported statement"},
		{"unknown qualifier", "SELECT * FROM a JOIN b ON a.b_id = c.id", `unknown table "c"`},
		{"empty", "", "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql, schema.Convention{})
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), tt.message)
		})
	}
}

func TestParseError_Truncates(t *testing.T) {
	long := "SELECT a, b, c, d, e, f, g, h, i, j, k, l, m, n, o, p, q, r, s FROM wide_table WHERE"
	_, err := Parse(long, nil)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, len(pe.Query) <= maxQueryDisplay+3)
	assert.NotNil(t, pe.Unwrap())
}
