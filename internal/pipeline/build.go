package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/frame"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// Build registers every checkpoint of p in a new registry. Frames are bound
// to eng, which may be nil when the pipeline is only compiled.
//
// A checkpoint that reads from an earlier checkpoint starts from that
// checkpoint's registered frame, so the two share graph nodes and a
// persisted dependency is referenced by name.
func Build(p *Pipeline, eng *engine.Engine) (*checkpoint.Registry, error) {
	source, err := p.Source.frame(eng)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Field: "source", Message: "invalid source", Err: err}
	}

	reg := checkpoint.NewRegistry()
	for _, cp := range p.Checkpoints {
		from := source
		if cp.From != p.Source.Name {
			if from, err = reg.Get(cp.From); err != nil {
				return nil, &LoadError{Code: ErrCodeBuildFailed, Field: cp.Name, Message: "resolve from", Err: err}
			}
		}

		f, err := cp.apply(from)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBuildFailed, Field: cp.Name, Message: "build checkpoint", Err: err}
		}
		m, err := sqlmodel.ParseMaterialization(cp.Materialization)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalid, Field: cp.Name, Message: err.Error()}
		}
		if err := reg.Add(cp.Name, f, m); err != nil {
			return nil, &LoadError{Code: ErrCodeBuildFailed, Field: cp.Name, Message: "register checkpoint", Err: err}
		}
		slog.Debug("registered checkpoint",
			"pipeline", p.Name,
			"checkpoint", cp.Name,
			"from", cp.From,
			"materialization", m)
	}
	return reg, nil
}

func (s *Source) frame(eng *engine.Engine) (*frame.Frame, error) {
	if s.Table != "" {
		return frame.FromTable(eng, s.Table, s.Index, s.Columns)
	}
	return frame.FromSQL(eng, s.Name, s.SQL, s.Index, s.Columns)
}

// apply runs the steps of cp against f: row filters, grouping and
// aggregation, group filters, then sorting.
func (cp *Checkpoint) apply(f *frame.Frame) (*frame.Frame, error) {
	var err error
	for _, c := range cp.Filter {
		if f, err = filter(f, c); err != nil {
			return nil, err
		}
	}

	if len(cp.Aggregate) > 0 {
		if len(cp.GroupBy) > 0 {
			if f, err = f.GroupBy(cp.GroupBy...); err != nil {
				return nil, err
			}
		}
		funcs := make(map[string][]frame.AggFunc, len(cp.Aggregate))
		for col, names := range cp.Aggregate {
			for _, name := range names {
				funcs[col] = append(funcs[col], frame.Named(name))
			}
		}
		if f, err = f.AggregateColumns(funcs); err != nil {
			return nil, err
		}
	}

	for _, c := range cp.Having {
		if f, err = filter(f, c); err != nil {
			return nil, err
		}
	}

	if len(cp.SortBy) > 0 {
		if f, err = f.SortValues(!cp.Descending, cp.SortBy...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func filter(f *frame.Frame, c Condition) (*frame.Frame, error) {
	col, err := lookup(f, c.Column)
	if err != nil {
		return nil, err
	}

	var cond *frame.Column
	switch c.Op {
	case "is_null":
		cond, err = col.IsNull()
	case "not_null":
		cond, err = col.NotNull()
	default:
		cond, err = col.Compare(dtype.Operator(c.Op), c.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("condition %s %s: %w", c.Column, c.Op, err)
	}
	return f.Filter(cond)
}

// lookup finds a data or index column by name.
func lookup(f *frame.Frame, name string) (*frame.Column, error) {
	for _, c := range f.Index() {
		if c.Name() == name {
			return c, nil
		}
	}
	if c, err := f.Column(name); err == nil {
		return c, nil
	}
	return nil, fmt.Errorf("unknown column %q, expected one of [%s]", name, strings.Join(slices.Sorted(slices.Values(f.Names())), ", "))
}
