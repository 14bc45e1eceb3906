package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/expr"
)

func TestAggregates_SQLAndDTypes(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")
	g := groupBy(t, column(t, f, "user_id"))

	tests := []struct {
		name  string
		agg   func() (*Column, error)
		sql   string
		dtype string
	}{
		{"count", func() (*Column, error) { return value.Count(g) }, `count("value")`, dtype.Int64},
		{"min", func() (*Column, error) { return value.Min(g) }, `min("value")`, dtype.Int64},
		{"max", func() (*Column, error) { return value.Max(g) }, `max("value")`, dtype.Int64},
		{"sum", func() (*Column, error) { return value.Sum(g) }, `sum("value")`, dtype.Int64},
		{"mean", func() (*Column, error) { return value.Mean(g) }, `avg("value")`, dtype.Float64},
		{"median", func() (*Column, error) { return value.Median(g) }, `percentile_disc(0.5) WITHIN GROUP (ORDER BY "value")`, dtype.Int64},
		{"mode", func() (*Column, error) { return value.Mode(g) }, `mode() WITHIN GROUP (ORDER BY "value")`, dtype.Int64},
		{"nunique", func() (*Column, error) { return value.NUnique(g) }, `count(distinct "value")`, dtype.Int64},
		{"result dtype", func() (*Column, error) { return value.Sum(g, ResultDType(dtype.Float64)) }, `sum("value")`, dtype.Float64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.agg()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sqlOf(t, c))
			assert.Equal(t, tt.dtype, c.DType())
			assert.True(t, c.Expression().HasAggregateFunction())
			assert.Same(t, g, c.GroupBy())
			require.Len(t, c.Index(), 1)
			assert.Equal(t, "user_id", c.Index()[0].Name())
		})
	}
}

func TestAggregate_WholeRelationWhenNoPartition(t *testing.T) {
	value := column(t, eventsFrame(t, nil), "value")

	sum, err := value.Sum(nil)
	require.NoError(t, err)
	require.NotNil(t, sum.GroupBy())
	require.Len(t, sum.Index(), 1)
	assert.Equal(t, "index", sum.Index()[0].Name())
	assert.Empty(t, sum.GroupBy().Expressions(), "constant key is not grouped on")

	count, err := value.Count(nil)
	require.NoError(t, err)
	assert.True(t, sum.GroupBy().Equal(count.GroupBy()))
}

func TestAggregate_ReusesPendingGrouping(t *testing.T) {
	f := eventsFrame(t, nil)
	g := groupBy(t, column(t, f, "user_id"))

	sum, err := column(t, f, "value").Sum(g)
	require.NoError(t, err)
	again, err := sum.Max(nil)
	require.NoError(t, err)
	assert.Same(t, g, again.GroupBy())
	assert.Equal(t, `max(sum("value"))`, sqlOf(t, again))
}

func TestAggregate_SkipNAFalseUnsupported(t *testing.T) {
	value := column(t, eventsFrame(t, nil), "value")

	_, err := value.Sum(nil, SkipNA(false))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeUnsupportedOperation))
}

func TestAggregate_TypeNotSupported(t *testing.T) {
	userID := column(t, eventsFrame(t, nil), "user_id")

	_, err := userID.Sum(nil)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeTypeMismatch))
}

func TestAggregate_MinCountOverGrouping(t *testing.T) {
	f := eventsFrame(t, nil)
	g := groupBy(t, column(t, f, "user_id"))

	c, err := column(t, f, "value").Count(g, MinCount(5))
	require.NoError(t, err)
	assert.Equal(t, `CASE WHEN count("value") >= 5 THEN count("value") ELSE NULL END`, sqlOf(t, c))
	assert.True(t, c.Expression().HasAggregateFunction())
}

func TestAggregate_MinCountMustMatchWindow(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")

	w, err := NewWindow(groupBy(t, column(t, f, "user_id")), WithMinValues(2))
	require.NoError(t, err)

	_, err = value.Sum(w, MinCount(3))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeConfigConflict))
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")

	_, err = value.Sum(w, MinCount(2))
	assert.NoError(t, err)
}

func TestAggregate_ConfusedGroupingState(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")

	sum, err := value.Sum(groupBy(t, column(t, f, "user_id")))
	require.NoError(t, err)

	_, err = sum.Count(groupBy(t, column(t, f, "event_id")))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeConfigConflict))
}

func TestAggregate_PartitionOnOtherBase(t *testing.T) {
	other, err := FromTable(nil, "other_events", nil, eventsColumns)
	require.NoError(t, err)

	_, err = column(t, eventsFrame(t, nil), "value").Sum(groupBy(t, column(t, other, "user_id")))
	require.Error(t, err)
	assert.True(t, IsError(err, ErrCodeBaseMismatch))
}

func TestAggregate_OverWindowKeepsIndex(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")

	w, err := NewWindow(groupBy(t, column(t, f, "user_id")), WithOrderBy(Asc(column(t, f, "event_id"))))
	require.NoError(t, err)

	sum, err := value.Sum(w)
	require.NoError(t, err)
	assert.Equal(t,
		`sum("value") OVER (partition by "user_id" order by "event_id" asc RANGE BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)`,
		sqlOf(t, sum))
	assert.Nil(t, sum.GroupBy())
	assert.Empty(t, sum.Index())
	assert.True(t, sum.Expression().HasWindowedAggregateFunction())
	assert.False(t, sum.Expression().HasAggregateFunction())
}

func TestAggregate_NotWindowable(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")
	w, err := NewWindow(nil)
	require.NoError(t, err)

	for name, agg := range map[string]func(Partition, ...AggOption) (*Column, error){
		"median":  value.Median,
		"mode":    value.Mode,
		"nunique": value.NUnique,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := agg(w)
			require.Error(t, err)
			assert.True(t, IsError(err, ErrCodeUnsupportedOperation))
		})
	}
}

func TestWindowFunctions(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")
	w, err := NewWindow(nil, WithOrderBy(Desc(value)), WithFrame(FrameRows, UnboundedPreceding, UnboundedFollowing))
	require.NoError(t, err)
	over := ` OVER (order by "value" desc ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING)`

	tests := []struct {
		name  string
		fn    func() (*Column, error)
		sql   string
		dtype string
	}{
		{"row_number", func() (*Column, error) { return value.WindowRowNumber(w) }, `row_number()`, dtype.Int64},
		{"rank", func() (*Column, error) { return value.WindowRank(w) }, `rank()`, dtype.Int64},
		{"dense_rank", func() (*Column, error) { return value.WindowDenseRank(w) }, `dense_rank()`, dtype.Int64},
		{"percent_rank", func() (*Column, error) { return value.WindowPercentRank(w) }, `percent_rank()`, dtype.Float64},
		{"cume_dist", func() (*Column, error) { return value.WindowCumeDist(w) }, `cume_dist()`, dtype.Float64},
		{"ntile", func() (*Column, error) { return value.WindowNTile(w, 4) }, `ntile(4)`, dtype.Int64},
		{"lag", func() (*Column, error) { return value.WindowLag(w, 2, 0) }, `lag("value", 2, cast(0 as bigint))`, dtype.Int64},
		{"lead", func() (*Column, error) { return value.WindowLead(w, 1, nil) }, `lead("value", 1, NULL)`, dtype.Int64},
		{"first_value", func() (*Column, error) { return value.WindowFirstValue(w) }, `first_value("value")`, dtype.Int64},
		{"last_value", func() (*Column, error) { return value.WindowLastValue(w) }, `last_value("value")`, dtype.Int64},
		{"nth_value", func() (*Column, error) { return value.WindowNthValue(w, 3) }, `nth_value("value", 3)`, dtype.Int64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.sql+over, sqlOf(t, c))
			assert.Equal(t, tt.dtype, c.DType())
			assert.Equal(t, expr.KindWindowFunction, c.Expression().Kind())
		})
	}
}

func TestWindowFunctions_RejectPlainGrouping(t *testing.T) {
	f := eventsFrame(t, nil)
	value := column(t, f, "value")
	g := groupBy(t, column(t, f, "user_id"))

	_, err := value.WindowRowNumber(g)
	assert.True(t, IsError(err, ErrCodeNotAWindow))

	_, err = value.WindowLag(g, 1, nil)
	assert.True(t, IsError(err, ErrCodeNotAWindow))

	_, err = value.WindowRank(nil)
	assert.True(t, IsError(err, ErrCodeNotAWindow))
}

func TestWindowFunctions_InvalidArguments(t *testing.T) {
	value := column(t, eventsFrame(t, nil), "value")
	w, err := NewWindow(nil)
	require.NoError(t, err)

	_, err = value.WindowNTile(w, 0)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	_, err = value.WindowNthValue(w, 0)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	_, err = value.WindowLag(w, -1, nil)
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	_, err = value.WindowLag(w, 1, "zero")
	assert.True(t, dtype.IsUnsupportedValue(err))
}

func TestWindow_MinValuesGuard(t *testing.T) {
	f := eventsFrame(t, nil)
	w, err := NewWindow(groupBy(t, column(t, f, "user_id")), WithMinValues(3))
	require.NoError(t, err)

	c, err := column(t, f, "value").Mean(w, MinCount(3))
	require.NoError(t, err)
	clause := `partition by "user_id" RANGE BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW`
	assert.Equal(t,
		`CASE WHEN (count(1) OVER (`+clause+`)) >= 3 THEN avg("value") OVER (`+clause+`) ELSE NULL END`,
		sqlOf(t, c))
}

func TestNewWindow_Validation(t *testing.T) {
	f := eventsFrame(t, nil)
	eventID := column(t, f, "event_id")
	userID := column(t, f, "user_id")

	tests := []struct {
		name string
		opts []WindowOption
	}{
		{"start after end", []WindowOption{WithFrame(FrameRows, CurrentRow, Preceding(1))}},
		{"following before preceding", []WindowOption{WithFrame(FrameRows, Following(2), Following(1))}},
		{"start unbounded following", []WindowOption{WithFrame(FrameRows, UnboundedFollowing, UnboundedFollowing)}},
		{"end unbounded preceding", []WindowOption{WithFrame(FrameRows, UnboundedPreceding, UnboundedPreceding)}},
		{"unknown mode", []WindowOption{WithFrame("GROUPS", UnboundedPreceding, CurrentRow)}},
		{"range offset without order", []WindowOption{WithFrame(FrameRange, Preceding(1), CurrentRow)}},
		{"range offset with two orders", []WindowOption{
			WithOrderBy(Asc(eventID), Asc(userID)),
			WithFrame(FrameRange, Preceding(1), CurrentRow),
		}},
		{"negative min values", []WindowOption{WithMinValues(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindow(nil, tt.opts...)
			require.Error(t, err)
			assert.True(t, IsError(err, ErrCodeInvalidArgument))
		})
	}

	_, err := NewWindow(nil, WithOrderBy(Asc(eventID)), WithFrame(FrameRange, Preceding(1), Following(1)))
	assert.NoError(t, err)
	_, err = NewWindow(nil, WithFrame(FrameRows, Preceding(3), Preceding(1)))
	assert.NoError(t, err)
}

func TestNewGroupBy_Validation(t *testing.T) {
	f := eventsFrame(t, nil)
	userID := column(t, f, "user_id")

	_, err := NewGroupBy()
	assert.True(t, IsError(err, ErrCodeInvalidArgument))

	_, err = NewGroupBy(userID, userID)
	assert.True(t, IsError(err, ErrCodeDuplicateName))

	sum, err := column(t, f, "value").Sum(nil)
	require.NoError(t, err)
	_, err = NewGroupBy(sum)
	assert.True(t, IsError(err, ErrCodeUnsupportedOperation))

	other, err := FromTable(nil, "other_events", nil, eventsColumns)
	require.NoError(t, err)
	_, err = NewGroupBy(userID, column(t, other, "event_id"))
	assert.True(t, IsError(err, ErrCodeBaseMismatch))
}
