package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/testutil"
)

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// eventsDatabase creates a SQLite file holding the events fixture and
// returns its URL.
func eventsDatabase(t *testing.T) string {
	t.Helper()

	url := "sqlite:" + filepath.Join(t.TempDir(), "events.db")
	eng, err := engine.Open(context.Background(), url)
	require.NoError(t, err)
	testutil.Exec(t, eng, testutil.EventsFixture...)
	require.NoError(t, eng.Close())
	return url
}
