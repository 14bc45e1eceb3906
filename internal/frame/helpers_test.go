package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/engine"
)

var eventsColumns = []ColumnSpec{
	{Name: "event_id", DType: "int64"},
	{Name: "user_id", DType: "string"},
	{Name: "value", DType: "int64"},
}

// eventsFrame builds an unindexed frame over the events fixture table.
func eventsFrame(t *testing.T, eng *engine.Engine) *Frame {
	t.Helper()

	f, err := FromTable(eng, "events", nil, eventsColumns)
	require.NoError(t, err)
	return f
}

func column(t *testing.T, f *Frame, name string) *Column {
	t.Helper()

	c, err := f.Column(name)
	require.NoError(t, err)
	return c
}

func sqlOf(t *testing.T, c *Column) string {
	t.Helper()

	sql, err := c.ColumnExpression("")
	require.NoError(t, err)
	return sql
}

func groupBy(t *testing.T, cols ...*Column) *GroupBy {
	t.Helper()

	g, err := NewGroupBy(cols...)
	require.NoError(t, err)
	return g
}
