package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/expr"
	"github.com/roach88/lazyq/internal/testutil"
)

func TestFromTable_SQL(t *testing.T) {
	f := eventsFrame(t, nil)

	sql, err := f.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "event_id", "user_id", "value" from "events___1"`,
		sql)
}

func TestFromModel_Validation(t *testing.T) {
	_, err := FromTable(nil, "events", nil, nil)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	_, err = FromTable(nil, "events", []ColumnSpec{{Name: "id", DType: "int64"}}, []ColumnSpec{{Name: "id", DType: "int64"}})
	assert.True(t, IsError(err, ErrCodeDuplicateName))

	_, err = FromTable(nil, "events", nil, []ColumnSpec{{Name: "", DType: "int64"}})
	assert.True(t, IsError(err, ErrCodeInvalidArgument))
}

func TestFrame_ColumnUnknown(t *testing.T) {
	_, err := eventsFrame(t, nil).Column("missing")
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUnknownColumn))
	assert.Contains(t, err.Error(), "event_id")
}

func TestFrame_SetColumn(t *testing.T) {
	f := eventsFrame(t, nil)
	doubled, err := column(t, f, "value").Mul(2)
	require.NoError(t, err)
	doubled, err = doubled.CopyOverride(WithName("doubled"))
	require.NoError(t, err)

	out, err := f.SetColumn(doubled)
	require.NoError(t, err)
	assert.Equal(t, []string{"event_id", "user_id", "value", "doubled"}, out.Names())
	assert.Equal(t, []string{"event_id", "user_id", "value"}, f.Names(), "original is unchanged")

	renamed, err := column(t, f, "event_id").CopyOverride(WithName("doubled"))
	require.NoError(t, err)
	replaced, err := out.SetColumn(renamed)
	require.NoError(t, err)
	assert.Equal(t, out.Names(), replaced.Names())
}

func TestFrame_SetColumnRejectsForeignGrouping(t *testing.T) {
	f := eventsFrame(t, nil)
	sum, err := column(t, f, "value").Sum(nil)
	require.NoError(t, err)

	_, err = f.SetColumn(sum)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeConfigConflict))
}

func TestFrame_ModelRejectsUnaggregatedColumns(t *testing.T) {
	grouped, err := eventsFrame(t, nil).GroupBy("user_id")
	require.NoError(t, err)

	_, err = grouped.SQL()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUnsupportedOperation))
}

func TestFrame_GroupByAggregate(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f := eventsFrame(t, eng)

	grouped, err := f.GroupBy("user_id")
	require.NoError(t, err)
	agg, err := grouped.Aggregate(Named("sum"))
	require.NoError(t, err)
	agg, err = agg.SortValues(true, "user_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "event_id_sum", "value_sum"}, agg.Names())

	sql, err := agg.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "user_id", sum("event_id") as "event_id_sum", sum("value") as "value_sum" from "events___1" group by "user_id" order by "user_id" asc`,
		sql)

	rows := testutil.QueryRows(t, eng, sql)
	assert.Equal(t, [][]any{
		{"u1", int64(15), int64(150)},
		{"u2", int64(30), int64(21)},
	}, rows)
}

func TestFrame_AggregateWholeRelation(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f, err := FromTable(eng, "events", nil, []ColumnSpec{{Name: "value", DType: "int64"}})
	require.NoError(t, err)

	agg, err := f.Aggregate(Named("count"))
	require.NoError(t, err)

	sql, err := agg.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select 1 as "index", count("value") as "value_count" from "events___1"`,
		sql)
	assert.Equal(t, [][]any{{int64(1), int64(8)}}, testutil.QueryRows(t, eng, sql))
}

func TestFrame_MinCountOverGrouping(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f := eventsFrame(t, eng)

	grouped, err := f.GroupBy("user_id")
	require.NoError(t, err)
	value, err := grouped.Column("value")
	require.NoError(t, err)

	count, err := value.Count(grouped.GroupBy(), MinCount(5))
	require.NoError(t, err)
	out, err := count.ToFrame().SortValues(true, "user_id")
	require.NoError(t, err)

	sql, err := out.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "user_id", CASE WHEN count("value") >= 5 THEN count("value") ELSE NULL END as "value" from "events___1" group by "user_id" order by "user_id" asc`,
		sql)

	// u2 has three non-NULL values, below the minimum of five.
	assert.Equal(t, [][]any{
		{"u1", int64(5)},
		{"u2", nil},
	}, testutil.QueryRows(t, eng, sql))
}

func TestFrame_WindowLag(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f := eventsFrame(t, eng)

	w, err := NewWindow(groupBy(t, column(t, f, "user_id")), WithOrderBy(Asc(column(t, f, "event_id"))))
	require.NoError(t, err)
	lag, err := column(t, f, "value").WindowLag(w, 2, 0)
	require.NoError(t, err)
	lag, err = lag.CopyOverride(WithName("lagged"))
	require.NoError(t, err)

	isU1, err := column(t, f, "user_id").Eq("u1")
	require.NoError(t, err)

	out, err := f.SetColumn(lag)
	require.NoError(t, err)
	out, err = out.Filter(isU1)
	require.NoError(t, err)
	out, err = out.SortValues(true, "event_id")
	require.NoError(t, err)

	sql, err := out.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "event_id", "user_id", "value", `+
			`lag("value", 2, cast(0 as bigint)) OVER (partition by "user_id" order by "event_id" asc RANGE BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) as "lagged" `+
			`from "events___1" where ("user_id") = ('u1') order by "event_id" asc`,
		sql)

	assert.Equal(t, [][]any{
		{int64(1), "u1", int64(10), int64(0)},
		{int64(2), "u1", int64(20), int64(0)},
		{int64(3), "u1", int64(30), int64(10)},
		{int64(4), "u1", int64(40), int64(20)},
		{int64(5), "u1", int64(50), int64(30)},
	}, testutil.QueryRows(t, eng, sql))
}

func TestFrame_FilterOnAggregateIsHaving(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f := eventsFrame(t, eng)

	sum, err := column(t, f, "value").Sum(groupBy(t, column(t, f, "user_id")))
	require.NoError(t, err)
	big, err := sum.Gt(100)
	require.NoError(t, err)

	out, err := sum.ToFrame().Filter(big)
	require.NoError(t, err)

	sql, err := out.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "user_id", sum("value") as "value" from "events___1" group by "user_id" having (sum("value")) > (cast(100 as bigint))`,
		sql)
	assert.Equal(t, [][]any{{"u1", int64(150)}}, testutil.QueryRows(t, eng, sql))
}

func TestFrame_FilterValidation(t *testing.T) {
	f := eventsFrame(t, nil)

	_, err := f.Filter(column(t, f, "value"))
	assert.True(t, IsError(err, ErrCodeTypeMismatch))

	sum, err := column(t, f, "value").Sum(nil)
	require.NoError(t, err)
	big, err := sum.Gt(1)
	require.NoError(t, err)
	_, err = f.Filter(big)
	assert.True(t, IsError(err, ErrCodeUnsupportedOperation))
}

func TestFrame_FilterOnWindowFunction(t *testing.T) {
	eng := testutil.OpenSQLiteWithEvents(t)
	f := eventsFrame(t, eng)

	w, err := NewWindow(groupBy(t, column(t, f, "user_id")), WithOrderBy(Asc(column(t, f, "event_id"))))
	require.NoError(t, err)
	lag, err := column(t, f, "value").WindowLag(w, 1, 0)
	require.NoError(t, err)
	lag, err = lag.CopyOverride(WithName("lagged"))
	require.NoError(t, err)
	cond, err := lag.Gt(10)
	require.NoError(t, err)

	_, err = f.Filter(cond)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUnsupportedOperation))
	assert.Contains(t, err.Error(), "Materialize")

	withLag, err := f.SetColumn(lag)
	require.NoError(t, err)
	m, err := withLag.Materialize("lagged_events")
	require.NoError(t, err)
	cond, err = column(t, m, "lagged").Gt(10)
	require.NoError(t, err)
	out, err := m.Filter(cond)
	require.NoError(t, err)
	out, err = out.SortValues(true, "event_id")
	require.NoError(t, err)

	sql, err := out.SQL()
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{int64(4), "u1", int64(40), int64(30)},
		{int64(5), "u1", int64(50), int64(40)},
	}, testutil.QueryRows(t, eng, sql))
}

func TestFrame_MaterializeChainsModels(t *testing.T) {
	f := eventsFrame(t, nil)
	cond, err := column(t, f, "value").Gt(10)
	require.NoError(t, err)
	filtered, err := f.Filter(cond)
	require.NoError(t, err)

	m, err := filtered.Materialize("big_events")
	require.NoError(t, err)
	assert.Equal(t, "big_events", m.Base().Name())
	assert.Equal(t, filtered.Names(), m.Names())

	grouped, err := m.GroupBy("user_id")
	require.NoError(t, err)
	agg, err := grouped.Aggregate(Named("max"))
	require.NoError(t, err)
	out, err := agg.SortValues(false, "value_max")
	require.NoError(t, err)

	sql, err := out.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events"), `+
			`"big_events___2" as (select "event_id", "user_id", "value" from "events___1" where ("value") > (cast(10 as bigint))) `+
			`select "user_id", max("event_id") as "event_id_max", max("value") as "value_max" from "big_events___2" group by "user_id" order by max("value") desc`,
		sql)
}

func TestFrame_RegroupMaterializesFirst(t *testing.T) {
	grouped, err := eventsFrame(t, nil).GroupBy("user_id")
	require.NoError(t, err)
	agg, err := grouped.Aggregate(Named("count"))
	require.NoError(t, err)

	regrouped, err := agg.GroupBy("value_count")
	require.NoError(t, err)
	assert.Equal(t, "grouped", regrouped.Base().Name())
	assert.Equal(t, []string{"value_count", "user_id", "event_id_count"}, regrouped.Names())
}

func TestFrame_Placeholders(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")

	cond, err := NewColumn(nil, f.Base(), nil, "cond",
		expr.MustConstruct("{} > {}", value, expr.Placeholder("int64", "min_value")), "bool")
	require.NoError(t, err)
	filtered, err := f.Filter(cond)
	require.NoError(t, err)

	_, err = filtered.SQL()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	bound, err := filtered.SetPlaceholder("min_value", 25)
	require.NoError(t, err)
	sql, err := bound.SQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `where "value" > cast(25 as bigint)`)
}

func TestFrame_CopyOverrideBaseNode(t *testing.T) {
	f := eventsFrame(t, nil)
	other, err := FromTable(nil, "events_copy", nil, eventsColumns)
	require.NoError(t, err)

	rebased, err := f.CopyOverrideBaseNode(other.Base())
	require.NoError(t, err)
	assert.True(t, rebased.Equal(other))
	for _, c := range rebased.Columns() {
		assert.Equal(t, other.Base().Hash(), c.Base().Hash())
	}
	assert.Equal(t, "events", f.Base().Name(), "original is unchanged")
}

func TestFrame_WithEngine(t *testing.T) {
	eng := testutil.OpenSQLite(t)
	f := eventsFrame(t, nil).WithEngine(eng)

	assert.Same(t, eng, f.Engine())
	for _, c := range f.Columns() {
		assert.Same(t, eng, c.Engine())
	}
}

func TestFrame_AggregateColumns(t *testing.T) {
	grouped, err := eventsFrame(t, nil).GroupBy("user_id")
	require.NoError(t, err)

	agg, err := grouped.AggregateColumns(map[string][]AggFunc{
		"value":    {Named("sum"), Named("max")},
		"event_id": {Named("count")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "event_id_count", "value_sum", "value_max"}, agg.Names())

	sql, err := agg.SQL()
	require.NoError(t, err)
	assert.Equal(t,
		`with "events___1" as (select * from "events") select "user_id", count("event_id") as "event_id_count", sum("value") as "value_sum", max("value") as "value_max" from "events___1" group by "user_id"`,
		sql)

	_, err = grouped.AggregateColumns(map[string][]AggFunc{"missing": {Named("sum")}})
	assert.True(t, IsError(err, ErrCodeUnknownColumn))

	_, err = grouped.AggregateColumns(nil)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))
}
