package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := Load("testdata/events.yaml")
	require.NoError(t, err)
	fromCUE, err := Load("testdata/events.cue")
	require.NoError(t, err)

	assert.Equal(t, "events", fromYAML.Name)
	require.Len(t, fromYAML.Checkpoints, 3)
	assert.Equal(t, "query", fromYAML.Checkpoints[0].Materialization, "materialization defaults to query")
	assert.Equal(t, map[string][]string{"value": {"sum", "count"}}, fromYAML.Checkpoints[1].Aggregate)

	assert.Equal(t, fromYAML.Source, fromCUE.Source)
	require.Len(t, fromCUE.Checkpoints, len(fromYAML.Checkpoints))
	for i := range fromYAML.Checkpoints {
		y, c := fromYAML.Checkpoints[i], fromCUE.Checkpoints[i]
		assert.Equal(t, y.Name, c.Name)
		assert.Equal(t, y.From, c.From)
		assert.Equal(t, y.GroupBy, c.GroupBy)
		assert.Equal(t, y.Aggregate, c.Aggregate)
		assert.Equal(t, y.SortBy, c.SortBy)
		assert.Equal(t, y.Descending, c.Descending)
		assert.Equal(t, y.Materialization, c.Materialization)
		assert.Len(t, c.Filter, len(y.Filter))
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", "testdata/missing.yaml", ErrCodeNotFound},
		{"unknown yaml field", "testdata/unknown_field.yaml", ErrCodeParse},
		{"schema violation", "testdata/bad_schema.cue", ErrCodeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.True(t, IsError(err, tt.code), "got %v", err)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := Load(path)
	assert.True(t, IsError(err, ErrCodeFormat))
}

func TestParseCUE_ReportsPosition(t *testing.T) {
	_, err := ParseCUE("inline.cue", []byte(`name: "x"
source: {table: "t", columns: [{name: "a", dtype: "int64"}]}
checkpoints: [{name: "bad name", from: "source"}]
`))
	require.Error(t, err)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCodeSchema, lerr.Code)
	assert.True(t, lerr.Pos.IsValid())
}

func TestValidate(t *testing.T) {
	valid := func() *Pipeline {
		p := &Pipeline{
			Name: "p",
			Source: Source{Table: "events", Columns: eventsColumns},
			Checkpoints: []Checkpoint{
				{Name: "a", From: "source"},
				{Name: "b", From: "a", GroupBy: []string{"user_id"}, Aggregate: map[string][]string{"value": {"sum"}}},
			},
		}
		p.applyDefaults()
		return p
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(p *Pipeline)
		want   string
	}{
		{"no name", func(p *Pipeline) { p.Name = "" }, "name is required"},
		{"table and sql", func(p *Pipeline) { p.Source.SQL = "select 1" }, "exactly one of table and sql"},
		{"no columns", func(p *Pipeline) { p.Source.Columns = nil }, "columns list is required"},
		{"no checkpoints", func(p *Pipeline) { p.Checkpoints = nil }, "checkpoints list is required"},
		{"forward reference", func(p *Pipeline) { p.Checkpoints[0].From = "b" }, `from "b"`},
		{"duplicate name", func(p *Pipeline) { p.Checkpoints[1].Name = "a" }, "already used"},
		{"group without aggregate", func(p *Pipeline) { p.Checkpoints[1].Aggregate = nil }, "group_by requires aggregate"},
		{"having without aggregate", func(p *Pipeline) {
			p.Checkpoints[0].Having = []Condition{{Column: "value", Op: "gt", Value: 1}}
		}, "having requires aggregate"},
		{"unknown op", func(p *Pipeline) {
			p.Checkpoints[0].Filter = []Condition{{Column: "value", Op: "like", Value: "x"}}
		}, `op "like"`},
		{"missing value", func(p *Pipeline) {
			p.Checkpoints[0].Filter = []Condition{{Column: "value", Op: "gt"}}
		}, "needs a value"},
		{"bad materialization", func(p *Pipeline) { p.Checkpoints[0].Materialization = "index" }, "unknown materialization"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, IsError(err, ErrCodeInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
