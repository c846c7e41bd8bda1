package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/selector"
	"github.com/rbergm/diploma-thesis/internal/testutil"
)

func TestMarshal_SortedKeys(t *testing.T) {
	data, err := Marshal(map[string]any{
		"probe":      "c",
		"index_scan": "b",
		"depth":      1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"depth":1,"index_scan":"b","probe":"c"}`, string(data))
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	data, err := Marshal("a < b && c > d")
	require.NoError(t, err)
	assert.Equal(t, `"a < b && c > d"`, string(data))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	d1, err := Marshal(decomposed)
	require.NoError(t, err)
	d2, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestMarshal_LineSeparatorsUnescaped(t *testing.T) {
	data, err := Marshal("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(data))
}

func TestMarshal_EscapedBackslashKept(t *testing.T) {
	data, err := Marshal(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(data))
}

func TestMarshal_Rejects(t *testing.T) {
	testCases := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"float", 1.5},
		{"nested float", map[string]any{"x": []any{1, 2.5}}},
		{"struct", struct{}{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Marshal(tc.value)
			assert.Error(t, err)
		})
	}
}

func TestMarshal_Arrays(t *testing.T) {
	data, err := Marshal([]any{"x", int64(2), true, []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, `["x",2,true,["a","b"]]`, string(data))
}

func TestFingerprint_Stable(t *testing.T) {
	q := testutil.JOBQuery()
	sel1, err := selector.Select(q, selector.DefaultPolicy())
	require.NoError(t, err)
	sel2, err := selector.Select(q, selector.DefaultPolicy())
	require.NoError(t, err)

	f1, err := Fingerprint(sel1.Directives)
	require.NoError(t, err)
	f2, err := Fingerprint(sel2.Directives)
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Len(t, f1, 64)
}

func TestFingerprint_DistinguishesPolicies(t *testing.T) {
	q := testutil.JOBQuery()
	first, err := selector.Select(q, selector.Policy{IdxTarget: selector.DefaultIdxTarget, NLJScope: selector.ScopeFirst})
	require.NoError(t, err)
	all, err := selector.Select(q, selector.Policy{IdxTarget: selector.DefaultIdxTarget, NLJScope: selector.ScopeAll})
	require.NoError(t, err)

	f1, err := Fingerprint(first.Directives)
	require.NoError(t, err)
	f2, err := Fingerprint(all.Directives)
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}

func TestFingerprint_Empty(t *testing.T) {
	f1, err := Fingerprint(nil)
	require.NoError(t, err)
	f2, err := Fingerprint([]selector.Directive{})
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestDirectivesJSON(t *testing.T) {
	sel, err := selector.Select(testutil.ChainQuery(), selector.DefaultPolicy())
	require.NoError(t, err)

	data, err := DirectivesJSON(sel.Directives)
	require.NoError(t, err)
	assert.Equal(t, `[{"depth":1,"edge":"b.c_id=c.id","index_scan":"b","probe":"c","subquery":"sq"}]`, string(data))
}

func TestQueryFingerprint_DomainSeparated(t *testing.T) {
	qf, err := QueryFingerprint("SELECT 1")
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainDirectives, []byte(`"SELECT 1"`)), qf)
	assert.Equal(t, hashWithDomain(DomainQuery, []byte(`"SELECT 1"`)), qf)
}
