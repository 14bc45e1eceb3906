package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/engine"
)

func TestColumnEqual(t *testing.T) {
	a := eventsFrame(t, nil)
	b := eventsFrame(t, nil)

	assert.True(t, column(t, a, "value").Equal(column(t, b, "value")))
	assert.False(t, column(t, a, "value").Equal(column(t, b, "event_id")))
	assert.False(t, column(t, a, "value").Equal(nil))

	asFloat, err := column(t, a, "value").CopyOverride(WithDType("float64"))
	require.NoError(t, err)
	assert.False(t, column(t, a, "value").Equal(asFloat), "dtype differs")

	other := engine.New(nil, "sqlite::memory:")
	rebound, err := column(t, a, "value").CopyOverride(WithEngine(other))
	require.NoError(t, err)
	assert.False(t, column(t, a, "value").Equal(rebound), "engine differs")
}

func TestColumnEqual_ComparesGrouping(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")

	byUser1, err := value.Sum(groupBy(t, column(t, f, "user_id")))
	require.NoError(t, err)
	byUser2, err := value.Sum(groupBy(t, column(t, f, "user_id")))
	require.NoError(t, err)
	byEvent, err := value.Sum(groupBy(t, column(t, f, "event_id")))
	require.NoError(t, err)

	assert.True(t, byUser1.Equal(byUser2))
	assert.False(t, byUser1.Equal(byEvent))

	ungrouped, err := byUser1.CopyOverride(WithGroupBy(nil))
	require.NoError(t, err)
	assert.False(t, byUser1.Equal(ungrouped))
}

func TestPartitionEqual_ExactType(t *testing.T) {
	f := eventsFrame(t, nil)
	g := groupBy(t, column(t, f, "user_id"))
	w, err := NewWindow(g)
	require.NoError(t, err)

	assert.True(t, g.Equal(groupBy(t, column(t, f, "user_id"))))
	assert.False(t, g.Equal(w))
	assert.False(t, w.Equal(g))

	same, err := NewWindow(groupBy(t, column(t, f, "user_id")))
	require.NoError(t, err)
	assert.True(t, w.Equal(same))

	ordered, err := NewWindow(g, WithOrderBy(Asc(column(t, f, "event_id"))))
	require.NoError(t, err)
	assert.False(t, w.Equal(ordered))

	guarded, err := NewWindow(g, WithMinValues(2))
	require.NoError(t, err)
	assert.False(t, w.Equal(guarded))
}

func TestFrameEqual(t *testing.T) {
	a := eventsFrame(t, nil)
	b := eventsFrame(t, nil)
	assert.True(t, a.Equal(b))

	sorted, err := a.SortValues(true, "event_id")
	require.NoError(t, err)
	assert.False(t, a.Equal(sorted))

	cond, err := column(t, a, "value").Gt(10)
	require.NoError(t, err)
	filtered, err := a.Filter(cond)
	require.NoError(t, err)
	assert.False(t, a.Equal(filtered))
}
