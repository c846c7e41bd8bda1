package hint

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/testutil"
)

func hinted(t *testing.T, q *querymodel.Query, target querymodel.KeyRole, scope selector.NLJScope) HintedQuery {
	t.Helper()
	sel, err := selector.Select(q, selector.Policy{IdxTarget: target, NLJScope: scope})
	require.NoError(t, err)
	return Annotate(q, sel.Directives)
}

func TestAnnotate_Empty(t *testing.T) {
	q := testutil.FlatQuery()

	h := Annotate(q, nil)
	assert.True(t, h.Empty())
	assert.Equal(t, 0, h.Len())
	assert.Same(t, q, h.Query())
}

func TestAnnotate_CopiesDirectives(t *testing.T) {
	q := testutil.ChainQuery()
	sel, err := selector.Select(q, selector.DefaultPolicy())
	require.NoError(t, err)

	h := Annotate(q, sel.Directives)
	sel.Directives[0].Subquery = "mutated"
	assert.Equal(t, "sq", h.Directives()[0].Subquery)

	out := h.Directives()
	out[0].Subquery = "mutated"
	assert.Equal(t, "sq", h.Directives()[0].Subquery)
}

func TestAnnotate_Reselection(t *testing.T) {
	q := testutil.JOBQuery()
	h1 := hinted(t, q, querymodel.RoleFK, selector.ScopeAll)

	sel, err := selector.Select(h1.Query(), selector.Policy{IdxTarget: querymodel.RoleFK, NLJScope: selector.ScopeAll})
	require.NoError(t, err)
	h2 := Annotate(h1.Query(), sel.Directives)

	assert.Equal(t, h1.Directives(), h2.Directives())
	assert.Equal(t, Serialize(h1, Options{}), Serialize(h2, Options{}))
}

func TestSerialize_EmptySafety(t *testing.T) {
	h := Annotate(testutil.FlatQuery(), nil)

	assert.Equal(t, "", Serialize(h, Options{StripEmpty: true}))
	assert.Equal(t, "/*+\n*/", Serialize(h, Options{StripEmpty: false}))
}

func TestSerialize_ChainFirst(t *testing.T) {
	h := hinted(t, testutil.ChainQuery(), querymodel.RoleFK, selector.ScopeFirst)

	assert.Equal(t, "/*+\nNestLoop(c b)\nIndexScan(b)\n*/", Serialize(h, Options{StripEmpty: true}))
	assert.Equal(t, "/*+\nNestLoop(c b)\n*/", Serialize(h, Options{Renderer: Positional{}}))
	assert.Equal(t, "/*+\nINL_JOIN(b)\n*/", Serialize(h, Options{Renderer: TiDB{}}))
}

func TestSerialize_DeduplicatesLines(t *testing.T) {
	h := hinted(t, testutil.JOBQuery(), querymodel.RoleFK, selector.ScopeAll)

	out := Serialize(h, Options{})
	assert.Equal(t, 1, countLines(out, "IndexScan(mc)"))
}

func TestApply(t *testing.T) {
	q := testutil.ChainQuery()

	h := hinted(t, q, querymodel.RoleFK, selector.ScopeFirst)
	assert.Equal(t, "/*+\nNestLoop(c b)\nIndexScan(b)\n*/\n"+q.Text(), h.Apply(Options{StripEmpty: true}))

	empty := Annotate(q, nil)
	assert.Equal(t, q.Text(), empty.Apply(Options{StripEmpty: true}))
	assert.Equal(t, "/*+\n*/\n"+q.Text(), empty.Apply(Options{}))
}

func TestLookupRenderer(t *testing.T) {
	r, err := LookupRenderer("")
	require.NoError(t, err)
	assert.Equal(t, "pg_hint_plan", r.Name())

	r, err = LookupRenderer("TiDB")
	require.NoError(t, err)
	assert.Equal(t, "tidb", r.Name())

	_, err = LookupRenderer("oracle")
	assert.ErrorContains(t, err, "unknown renderer")

	assert.Equal(t, []string{"pg_hint_plan", "positional", "tidb"}, RendererNames())
}

func TestSerialize_Golden(t *testing.T) {
	testCases := []struct {
		name     string
		target   querymodel.KeyRole
		scope    selector.NLJScope
		renderer Renderer
	}{
		{"job_fk_first_pg_hint_plan", querymodel.RoleFK, selector.ScopeFirst, PgHintPlan{}},
		{"job_fk_all_pg_hint_plan", querymodel.RoleFK, selector.ScopeAll, PgHintPlan{}},
		{"job_pk_first_positional", querymodel.RolePK, selector.ScopeFirst, Positional{}},
		{"job_fk_all_tidb", querymodel.RoleFK, selector.ScopeAll, TiDB{}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := hinted(t, testutil.JOBQuery(), tc.target, tc.scope)
			g.Assert(t, tc.name, []byte(Serialize(h, Options{StripEmpty: true, Renderer: tc.renderer})))
		})
	}
}

func countLines(s, line string) int {
	n := 0
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if s[start:i] == line {
				n++
			}
			start = i + 1
		}
	}
	return n
}
