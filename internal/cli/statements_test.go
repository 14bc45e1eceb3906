package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_Drop(t *testing.T) {
	out, err := runCLI(t, "statements", "--kind", "drop", "testdata/events.yaml")
	require.NoError(t, err)
	assert.Equal(t,
		"-- top_users (view)\ndrop view if exists \"top_users\";\n\n-- user_totals (table)\ndrop table if exists \"user_totals\";\n",
		out)
}

func TestStatements_Create(t *testing.T) {
	out, err := runCLI(t, "statements", "--kind", "create", "--format", "json", "testdata/events.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	stmts, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, stmts, 2)
	assert.Equal(t, "user_totals", stmts[0].(map[string]any)["name"])
	assert.Equal(t, "top_users", stmts[1].(map[string]any)["name"])
}

func TestStatements_InvalidKind(t *testing.T) {
	out, err := runCLI(t, "statements", "--kind", "truncate", "testdata/events.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `invalid kind "truncate"`)
}
