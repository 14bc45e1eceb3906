package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rollup.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rollup", s.Name)
	assert.Equal(t, filepath.Join("testdata", "pipelines", "rollup.yaml"), s.Pipeline)
	assert.Len(t, s.Setup, 2)
	assert.False(t, s.Overwrite)
	require.Len(t, s.Assertions, 5)
	assert.Equal(t, AssertCreated, s.Assertions[0].Type)
	assert.Equal(t, []string{"user_totals", "heavy_users"}, s.Assertions[0].Objects)
	assert.Equal(t, 4, s.Assertions[1].Count)
	assert.Equal(t, []any{2, "u1", 20}, s.Assertions[2].Rows[0])
}

func TestLoadScenario_AbsolutePipelineKept(t *testing.T) {
	abs, err := filepath.Abs("testdata/pipelines/rollup.yaml")
	require.NoError(t, err)

	path := writeScenario(t, `
name: abs
description: absolute pipeline path
pipeline: `+abs+`
assertions:
  - type: created
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, s.Pipeline)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\npipeline: p.yaml\nassertions: [{type: created}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\npipeline: p.yaml\nassertions: [{type: created}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing pipeline",
			content: "name: n\ndescription: d\nassertions: [{type: created}]\n",
			wantErr: "pipeline is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\npipeline: p.yaml\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\npipeline: p.yaml\nasertions: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\npipeline: p.yaml\nassertions: [{type: rows_equal}]\n",
			wantErr: `unknown assertion type "rows_equal"`,
		},
		{
			name:    "query_rows without checkpoint",
			content: "name: n\ndescription: d\npipeline: p.yaml\nassertions: [{type: query_rows, rows: [[1]]}]\n",
			wantErr: "query_rows requires checkpoint",
		},
		{
			name:    "query_rows without rows",
			content: "name: n\ndescription: d\npipeline: p.yaml\nassertions: [{type: query_rows, checkpoint: c}]\n",
			wantErr: "query_rows requires rows",
		},
		{
			name:    "final_state without query",
			content: "name: n\ndescription: d\npipeline: p.yaml\nassertions: [{type: final_state, rows: []}]\n",
			wantErr: "final_state requires query",
		},
		{
			name:    "negative row_count",
			content: "name: n\ndescription: d\npipeline: p.yaml\nassertions: [{type: row_count, checkpoint: c, count: -1}]\n",
			wantErr: "count must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
