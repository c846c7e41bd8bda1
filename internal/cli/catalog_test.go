package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbergm/diploma-thesis/internal/schema"
)

func TestValidateCatalog_Valid(t *testing.T) {
	for _, name := range []string{"imdb.yaml", "imdb.cue"} {
		t.Run(name, func(t *testing.T) {
			stdout, err := execute(t, "", "validate-catalog", testdata(name))
			require.NoError(t, err)
			assert.Contains(t, stdout, "Catalog valid: 7 tables, 7 primary keys, 6 foreign keys")
		})
	}
}

func TestValidateCatalog_Dangling(t *testing.T) {
	stdout, err := execute(t, "", "validate-catalog", testdata("dangling.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "has 2 error(s)")
	assert.Contains(t, stdout, "["+schema.ErrCodeReference+"]")
	assert.Contains(t, stdout, "not the primary key")
	assert.Contains(t, stdout, `unknown table "title"`)
}

func TestValidateCatalog_JSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		stdout, err := execute(t, "", "--format", "json", "validate-catalog", testdata("imdb.yaml"))
		require.NoError(t, err)

		var result CatalogResult
		decodeData(t, stdout, &result)
		assert.True(t, result.Valid)
		require.NotNil(t, result.Stats)
		assert.Equal(t, schema.Stats{Tables: 7, PrimaryKeys: 7, ForeignKeys: 6}, *result.Stats)
	})

	t.Run("missing file", func(t *testing.T) {
		stdout, err := execute(t, "", "--format", "json", "validate-catalog", testdata("missing.yaml"))
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, schema.ErrCodeNotFound, resp.Error.Code)
	})
}
