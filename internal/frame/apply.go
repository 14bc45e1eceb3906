package frame

import (
	"maps"
	"slices"
)

// AggFunc is an aggregation applied by ApplyFunc and Agg. Build one with
// Named or Custom.
type AggFunc struct {
	name string
	fn   func(c *Column, p Partition) (*Column, error)
}

// Name returns the function name, used as the result name suffix.
func (f AggFunc) Name() string { return f.name }

// Named refers to a built-in aggregation or window function by name. Names
// are checked when the function is applied.
func Named(name string) AggFunc {
	return AggFunc{name: name}
}

// Custom wraps a caller-supplied aggregation.
func Custom(name string, fn func(c *Column, p Partition) (*Column, error)) AggFunc {
	return AggFunc{name: name, fn: fn}
}

var builtinFuncs = map[string]func(c *Column, p Partition) (*Column, error){
	"count":        func(c *Column, p Partition) (*Column, error) { return c.Count(p) },
	"min":          func(c *Column, p Partition) (*Column, error) { return c.Min(p) },
	"max":          func(c *Column, p Partition) (*Column, error) { return c.Max(p) },
	"sum":          func(c *Column, p Partition) (*Column, error) { return c.Sum(p) },
	"mean":         func(c *Column, p Partition) (*Column, error) { return c.Mean(p) },
	"median":       func(c *Column, p Partition) (*Column, error) { return c.Median(p) },
	"mode":         func(c *Column, p Partition) (*Column, error) { return c.Mode(p) },
	"nunique":      func(c *Column, p Partition) (*Column, error) { return c.NUnique(p) },
	"row_number":   func(c *Column, p Partition) (*Column, error) { return c.WindowRowNumber(p) },
	"rank":         func(c *Column, p Partition) (*Column, error) { return c.WindowRank(p) },
	"dense_rank":   func(c *Column, p Partition) (*Column, error) { return c.WindowDenseRank(p) },
	"percent_rank": func(c *Column, p Partition) (*Column, error) { return c.WindowPercentRank(p) },
	"cume_dist":    func(c *Column, p Partition) (*Column, error) { return c.WindowCumeDist(p) },
	"first_value":  func(c *Column, p Partition) (*Column, error) { return c.WindowFirstValue(p) },
	"last_value":   func(c *Column, p Partition) (*Column, error) { return c.WindowLastValue(p) },
}

// FuncNames returns the names Named accepts, sorted.
func FuncNames() []string {
	return slices.Sorted(maps.Keys(builtinFuncs))
}

func (f AggFunc) resolve() (func(c *Column, p Partition) (*Column, error), error) {
	if f.fn != nil {
		return f.fn, nil
	}
	fn, ok := builtinFuncs[f.name]
	if !ok {
		return nil, newError(ErrCodeUnknownFunction, "apply", "unknown function %q, expected one of %v", f.name, FuncNames())
	}
	return fn, nil
}

// ApplyFunc applies every function to c within p. Result i is named
// "<column>_<function>".
func (c *Column) ApplyFunc(p Partition, funcs ...AggFunc) ([]*Column, error) {
	if len(funcs) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "apply", "at least one function is required")
	}

	resolved := make([]func(*Column, Partition) (*Column, error), len(funcs))
	for i, f := range funcs {
		if f.name == "" {
			return nil, newError(ErrCodeInvalidArgument, "apply", "function %d has no name", i)
		}
		fn, err := f.resolve()
		if err != nil {
			return nil, err
		}
		resolved[i] = fn
	}

	out := make([]*Column, 0, len(funcs))
	seen := map[string]bool{}
	for i, fn := range resolved {
		name := c.name + "_" + funcs[i].name
		if seen[name] {
			return nil, newError(ErrCodeDuplicateName, "apply", "duplicate series target name %q", name)
		}
		seen[name] = true

		result, err := fn(c, p)
		if err != nil {
			return nil, err
		}
		renamed, err := result.CopyOverride(WithName(name))
		if err != nil {
			return nil, err
		}
		out = append(out, renamed)
	}
	return out, nil
}

// AggResult holds the outcome of Agg: a single Column for one function, or
// a Frame indexed by the grouping for several.
type AggResult struct {
	Column *Column
	Frame  *Frame
}

// Agg applies funcs within p. A nil p aggregates over c's pending grouping
// or the whole relation.
func (c *Column) Agg(p Partition, funcs ...AggFunc) (*AggResult, error) {
	if p == nil {
		if c.groupBy != nil {
			p = c.groupBy
		} else {
			p = wholeRelation(c)
		}
	}

	cols, err := c.ApplyFunc(p, funcs...)
	if err != nil {
		return nil, err
	}
	if len(cols) == 1 {
		return &AggResult{Column: cols[0]}, nil
	}

	f := &Frame{
		engine: c.engine,
		base:   c.base,
		data:   cols,
	}
	switch part := p.(type) {
	case *GroupBy:
		f.index = part.Index()
		f.groupBy = part
	default:
		f.index = c.Index()
	}
	return &AggResult{Frame: f}, nil
}
