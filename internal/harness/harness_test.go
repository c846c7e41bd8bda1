package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/workload"
)

func TestRun_DefaultScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/job_fk_first.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Cases, 6)
	statuses := make([]workload.Status, len(result.Cases))
	for i, c := range result.Cases {
		statuses[i] = c.Status
	}
	assert.Equal(t, []workload.Status{
		workload.StatusHinted, workload.StatusHinted,
		workload.StatusUnhinted, workload.StatusUnhinted,
		workload.StatusFailed, workload.StatusFailed,
	}, statuses)

	assert.Equal(t, ErrorParse, result.Cases[4].ErrorKind)
	assert.NotEmpty(t, result.Cases[4].Error)
	assert.Equal(t, ErrorAmbiguity, result.Cases[5].ErrorKind)
}

func TestRun_CatalogScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/job_pk_all_cue.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Cases[0].Directives, 2)
	assert.Equal(t, "/*+\nINL_JOIN(cn)\nINL_JOIN(ct)\n*/", result.Cases[0].Hint)
}

func TestRun_ReportsEveryMismatch(t *testing.T) {
	path := writeScenario(t, `
name: wrong
description: "Expectations that do not hold"
cases:
  - name: 2b
    query: SELECT COUNT(*) FROM title t WHERE t.id IN (SELECT ci.movie_id FROM cast_info ci JOIN name n ON ci.person_id = n.id)
    expect:
      status: unhinted
      hint: ""
      skipped: 2
      directives:
        - index_scan: n
          probe: ci
  - name: ok
    query: SELECT COUNT(*) FROM title t, movie_companies mc WHERE t.id = mc.movie_id
    expect:
      status: unhinted
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "case 2b: status: expected unhinted, got hinted")
	assert.Contains(t, joined, "case 2b: hint:")
	assert.Contains(t, joined, "case 2b: skipped: expected 2, got 0")
	assert.Contains(t, joined, "case 2b: directives: expected [ci->n], got [<subquery@1>:n->ci]")
	assert.NotContains(t, joined, "case ok")
}

func TestRun_ExpectedErrorKind(t *testing.T) {
	path := writeScenario(t, `
name: kinds
description: "Error kinds"
cases:
  - name: broken
    query: SELEC oops
    expect:
      error: ambiguity
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "case broken: error: expected ambiguity, got parse", result.Errors[0])
}

func TestRun_BrokenCatalog(t *testing.T) {
	s := &Scenario{
		Name:        "broken_catalog",
		Description: "Catalog fails to load",
		Catalog:     "../schema/testdata/broken.cue",
		Cases:       []Case{{Name: "q", Query: "SELECT 1"}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult("s")
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
