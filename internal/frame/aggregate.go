package frame

import (
	"fmt"

	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/expr"
)

type aggOptions struct {
	skipNA      bool
	minCount    int
	resultDType string
}

// AggOption configures an aggregation.
type AggOption func(*aggOptions)

// SkipNA controls NULL handling. Only true is supported: the engine's
// aggregate functions always skip NULLs.
func SkipNA(skip bool) AggOption {
	return func(o *aggOptions) { o.skipNA = skip }
}

// MinCount makes the result NULL for groups with fewer than n non-NULL
// values. Over a window, n must equal the window's min values.
func MinCount(n int) AggOption {
	return func(o *aggOptions) { o.minCount = n }
}

// ResultDType overrides the result dtype.
func ResultDType(name string) AggOption {
	return func(o *aggOptions) { o.resultDType = name }
}

func newAggOptions(opts []AggOption) aggOptions {
	o := aggOptions{skipNA: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// derivedAggregate builds a column that aggregates c through e within p.
//
// A nil p falls back to c's pending grouping, or to a grouping of the whole
// relation. Over a window the result keeps c's index; over a grouping it
// becomes a pending aggregation indexed by the grouping.
func (c *Column) derivedAggregate(op string, p Partition, e *expr.Expression, resultDType string, opts aggOptions) (*Column, error) {
	if !opts.skipNA {
		return nil, newError(ErrCodeUnsupportedOperation, op, "skipna=false is not supported")
	}

	if p == nil {
		if c.groupBy != nil {
			p = c.groupBy
		} else {
			p = wholeRelation(c)
		}
	}
	if b := p.Base(); b != nil && !b.Equal(c.base) {
		return nil, errBaseMismatch(op)
	}

	if opts.minCount > 0 {
		switch w := p.(type) {
		case *Window:
			if w.minValues != opts.minCount {
				return nil, newError(ErrCodeConfigConflict, op,
					"min_count %d conflicts with window min values %d", opts.minCount, w.minValues)
			}
		default:
			count, err := c.Count(p)
			if err != nil {
				return nil, err
			}
			e, err = expr.Construct(
				fmt.Sprintf("CASE WHEN {} >= %d THEN {} ELSE NULL END", opts.minCount), count, e)
			if err != nil {
				return nil, err
			}
		}
	}

	if opts.resultDType != "" {
		resultDType = opts.resultDType
	}

	switch part := p.(type) {
	case *Window:
		we, err := part.WindowExpression(e)
		if err != nil {
			return nil, err
		}
		return c.CopyOverride(WithDType(resultDType), WithExpression(we))
	case *GroupBy:
		if c.groupBy != nil && !c.groupBy.Equal(part) {
			return nil, newError(ErrCodeConfigConflict, op,
				"passed partition %s does not match the column's pending grouping %s", part, c.groupBy)
		}
		return c.CopyOverride(
			WithDType(resultDType),
			WithIndex(part.Index()),
			WithGroupBy(part),
			WithExpression(e),
		)
	default:
		return nil, newError(ErrCodeInvalidArgument, op, "unknown partition type %T", p)
	}
}

// namedAggregate applies a standard aggregation, e.g. "sum" with template
// "sum({})". The kind decides whether name applies and its result dtype.
func (c *Column) namedAggregate(name, template string, windowable bool, p Partition, opts []AggOption) (*Column, error) {
	result, ok := c.kind.Aggregate(name)
	if !ok {
		return nil, newError(ErrCodeTypeMismatch, name, "%s is not supported for %s", name, c.DType())
	}
	if _, isWindow := p.(*Window); isWindow && !windowable {
		return nil, newError(ErrCodeUnsupportedOperation, name, "%s is not supported over a window", name)
	}
	e, err := expr.KindAggregateFunction.Construct(template, c)
	if err != nil {
		return nil, err
	}
	return c.derivedAggregate(name, p, e, result, newAggOptions(opts))
}

// Count counts non-NULL values.
func (c *Column) Count(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("count", "count({})", true, p, opts)
}

// Min returns the smallest value.
func (c *Column) Min(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("min", "min({})", true, p, opts)
}

// Max returns the largest value.
func (c *Column) Max(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("max", "max({})", true, p, opts)
}

// Sum adds the values.
func (c *Column) Sum(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("sum", "sum({})", true, p, opts)
}

// Mean averages the values.
func (c *Column) Mean(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("mean", "avg({})", true, p, opts)
}

// Median returns the discrete median.
func (c *Column) Median(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("median", "percentile_disc(0.5) WITHIN GROUP (ORDER BY {})", false, p, opts)
}

// Mode returns the most frequent value.
func (c *Column) Mode(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("mode", "mode() WITHIN GROUP (ORDER BY {})", false, p, opts)
}

// NUnique counts distinct non-NULL values.
func (c *Column) NUnique(p Partition, opts ...AggOption) (*Column, error) {
	return c.namedAggregate("nunique", "count(distinct {})", false, p, opts)
}

func (c *Column) checkWindow(op string, p Partition) (*Window, error) {
	w, ok := p.(*Window)
	if !ok {
		return nil, newError(ErrCodeNotAWindow, op, "%s needs a window, got %T", op, p)
	}
	if w == nil {
		return nil, newError(ErrCodeNotAWindow, op, "%s needs a window, got nil", op)
	}
	return w, nil
}

func (c *Column) windowFunction(op string, p Partition, template, result string, args ...expr.Source) (*Column, error) {
	w, err := c.checkWindow(op, p)
	if err != nil {
		return nil, err
	}
	e, err := expr.Construct(template, args...)
	if err != nil {
		return nil, err
	}
	if result == "" {
		result = c.DType()
	}
	return c.derivedAggregate(op, w, e, result, newAggOptions(nil))
}

// WindowRowNumber numbers the rows of each partition from 1.
func (c *Column) WindowRowNumber(w Partition) (*Column, error) {
	return c.windowFunction("row_number", w, "row_number()", dtype.Int64)
}

// WindowRank ranks rows with gaps.
func (c *Column) WindowRank(w Partition) (*Column, error) {
	return c.windowFunction("rank", w, "rank()", dtype.Int64)
}

// WindowDenseRank ranks rows without gaps.
func (c *Column) WindowDenseRank(w Partition) (*Column, error) {
	return c.windowFunction("dense_rank", w, "dense_rank()", dtype.Int64)
}

// WindowPercentRank is the relative rank, from 0 to 1.
func (c *Column) WindowPercentRank(w Partition) (*Column, error) {
	return c.windowFunction("percent_rank", w, "percent_rank()", dtype.Float64)
}

// WindowCumeDist is the cumulative distribution, from 1/n to 1.
func (c *Column) WindowCumeDist(w Partition) (*Column, error) {
	return c.windowFunction("cume_dist", w, "cume_dist()", dtype.Float64)
}

// WindowNTile assigns each row a bucket from 1 to buckets.
func (c *Column) WindowNTile(w Partition, buckets int) (*Column, error) {
	if buckets < 1 {
		return nil, newError(ErrCodeInvalidArgument, "ntile", "bucket count must be positive, got %d", buckets)
	}
	return c.windowFunction("ntile", w, fmt.Sprintf("ntile(%d)", buckets), dtype.Int64)
}

// WindowLag returns the value offset rows before the current row, or def
// when there is no such row. A nil def is NULL.
func (c *Column) WindowLag(w Partition, offset int, def any) (*Column, error) {
	return c.offsetFunction("lag", w, offset, def)
}

// WindowLead returns the value offset rows after the current row, or def
// when there is no such row. A nil def is NULL.
func (c *Column) WindowLead(w Partition, offset int, def any) (*Column, error) {
	return c.offsetFunction("lead", w, offset, def)
}

func (c *Column) offsetFunction(op string, w Partition, offset int, def any) (*Column, error) {
	if offset < 0 {
		return nil, newError(ErrCodeInvalidArgument, op, "offset must not be negative, got %d", offset)
	}
	defExpr, err := c.kind.ValueToExpression(def)
	if err != nil {
		return nil, err
	}
	return c.windowFunction(op, w, fmt.Sprintf("%s({}, %d, {})", op, offset), "", c, defExpr)
}

// WindowFirstValue returns the first value in the frame.
func (c *Column) WindowFirstValue(w Partition) (*Column, error) {
	return c.windowFunction("first_value", w, "first_value({})", "", c)
}

// WindowLastValue returns the last value in the frame.
func (c *Column) WindowLastValue(w Partition) (*Column, error) {
	return c.windowFunction("last_value", w, "last_value({})", "", c)
}

// WindowNthValue returns the n-th value in the frame, counting from 1.
func (c *Column) WindowNthValue(w Partition, n int) (*Column, error) {
	if n < 1 {
		return nil, newError(ErrCodeInvalidArgument, "nth_value", "n must be positive, got %d", n)
	}
	return c.windowFunction("nth_value", w, fmt.Sprintf("nth_value({}, %d)", n), "", c)
}
