package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

func eventsFrame(t *testing.T, eng *engine.Engine) *frame.Frame {
	t.Helper()

	f, err := frame.FromTable(eng, "events", nil, []frame.ColumnSpec{
		{Name: "user_id", DType: "string"},
		{Name: "value", DType: "int64"},
	})
	require.NoError(t, err)
	return f
}

func filterGt(t *testing.T, f *frame.Frame, name string, v int64) *frame.Frame {
	t.Helper()

	c, err := f.Column(name)
	require.NoError(t, err)
	cond, err := c.Gt(v)
	require.NoError(t, err)
	out, err := f.Filter(cond)
	require.NoError(t, err)
	return out
}

// abcRegistry registers three chained checkpoints:
//
//	a (query): events with value > 10
//	b (table): sum of a's values per user
//	c (view):  users of b with a sum above 100
func abcRegistry(t *testing.T, eng *engine.Engine) *Registry {
	t.Helper()

	r := NewRegistry()
	require.NoError(t, r.Add("a", filterGt(t, eventsFrame(t, eng), "value", 10), sqlmodel.MaterializationQuery))

	a, err := r.Get("a")
	require.NoError(t, err)
	grouped, err := a.GroupBy("user_id")
	require.NoError(t, err)
	sums, err := grouped.Aggregate(frame.Named("sum"))
	require.NoError(t, err)
	require.NoError(t, r.Add("b", sums, sqlmodel.MaterializationTable))

	b, err := r.Get("b")
	require.NoError(t, err)
	require.NoError(t, r.Add("c", filterGt(t, b, "value_sum", 100), sqlmodel.MaterializationView))
	return r
}
