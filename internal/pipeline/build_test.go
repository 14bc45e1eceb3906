package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
	"github.com/roach88/lazyq/internal/testutil"
)

var eventsColumns = []frame.ColumnSpec{
	{Name: "event_id", DType: "int64"},
	{Name: "user_id", DType: "string"},
	{Name: "value", DType: "int64"},
}

func TestBuild_Statements(t *testing.T) {
	p, err := Load("testdata/events.yaml")
	require.NoError(t, err)

	reg, err := Build(p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"big_events", "user_totals", "top_users"}, reg.Names())

	stmts, err := reg.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, []string{"big_events", "user_totals", "top_users"}, stmts.Names())

	totals, ok := stmts.Get("user_totals")
	require.True(t, ok)
	assert.Equal(t,
		`create table "user_totals" as with "events___1" as (select * from "events"), `+
			`"big_events___2" as (select "event_id", "user_id", "value" from "events___1" where ("value") > (cast(10 as bigint))) `+
			`select "user_id", sum("value") as "value_sum", count("value") as "value_count" from "big_events___2" group by "user_id"`,
		totals)

	top, ok := stmts.Get("top_users")
	require.True(t, ok)
	assert.Equal(t,
		`create view "top_users" as select "user_id", "value_sum", "value_count" from "user_totals" where ("value_sum") > (cast(100 as bigint)) order by "value_sum" desc`,
		top)
}

func TestBuild_Execute(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	p, err := Load("testdata/events.cue")
	require.NoError(t, err)

	reg, err := Build(p, eng)
	require.NoError(t, err)
	res, err := reg.Execute(t.Context(), eng, false)
	require.NoError(t, err)

	assert.Equal(t, []checkpoint.CreatedObject{
		{Name: "user_totals", Materialization: sqlmodel.MaterializationTable},
		{Name: "top_users", Materialization: sqlmodel.MaterializationView},
	}, res.Created)
	assert.Len(t, res.Queries["big_events"].Rows, 4)
	assert.Equal(t, [][]any{{"u1", int64(140), int64(4)}}, testutil.QueryRows(t, eng, `select * from "top_users"`))
}

func TestBuild_HavingAndNullFilter(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	p := &Pipeline{
		Name:   "having",
		Source: Source{Table: "events", Columns: eventsColumns},
		Checkpoints: []Checkpoint{{
			Name:      "active_users",
			From:      "source",
			Filter:    []Condition{{Column: "value", Op: "not_null"}},
			GroupBy:   []string{"user_id"},
			Aggregate: map[string][]string{"value": {"count"}},
			Having:    []Condition{{Column: "value_count", Op: "ge", Value: 3}},
			SortBy:    []string{"user_id"},
		}},
	}
	p.applyDefaults()
	require.NoError(t, p.Validate())

	reg, err := Build(p, eng)
	require.NoError(t, err)
	stmts, err := reg.ToSQL()
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "user_id", count("value") as "value_count" from "events___1" `+
			`where ("value") is not null group by "user_id" having (count("value")) >= (cast(3 as bigint)) order by "user_id" asc`,
		stmts[0].SQL)

	assert.Equal(t, [][]any{{"u1", int64(5)}, {"u2", int64(3)}}, testutil.QueryRows(t, eng, stmts[0].SQL))
}

func TestBuild_FromSQLSource(t *testing.T) {
	p := &Pipeline{
		Name: "sql",
		Source: Source{
			Name:    "recent",
			SQL:     "select * from events where event_id > 3",
			Columns: eventsColumns,
		},
		Checkpoints: []Checkpoint{{Name: "everything", From: "recent", Aggregate: map[string][]string{"event_id": {"max"}}}},
	}
	p.applyDefaults()

	reg, err := Build(p, nil)
	require.NoError(t, err)
	stmts, err := reg.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "recent___1" as (select * from events where event_id > 3) select 1 as "index", max("event_id") as "event_id_max" from "recent___1"`,
		stmts[0].SQL)
}

func TestBuild_Errors(t *testing.T) {
	base := func(cp Checkpoint) *Pipeline {
		p := &Pipeline{Name: "p", Source: Source{Table: "events", Columns: eventsColumns}, Checkpoints: []Checkpoint{cp}}
		p.applyDefaults()
		return p
	}

	tests := []struct {
		name string
		cp   Checkpoint
		want string
	}{
		{"unknown filter column", Checkpoint{Name: "a", From: "source",
			Filter: []Condition{{Column: "missing", Op: "eq", Value: 1}}}, `unknown column "missing"`},
		{"type mismatch", Checkpoint{Name: "a", From: "source",
			Filter: []Condition{{Column: "value", Op: "eq", Value: "ten"}}}, "not supported"},
		{"unknown function", Checkpoint{Name: "a", From: "source",
			Aggregate: map[string][]string{"value": {"variance"}}}, `unknown function "variance"`},
		{"invalid name", Checkpoint{Name: "bad-name", From: "source"}, "INVALID_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(base(tt.cp), nil)
			require.Error(t, err)
			assert.True(t, IsError(err, ErrCodeBuildFailed), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
