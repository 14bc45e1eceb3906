package frame

import (
	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/expr"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// Partition describes how rows are partitioned for aggregation. It is
// implemented by *GroupBy and *Window only.
type Partition interface {
	// Index returns the partitioning columns.
	Index() []*Column

	// Base returns the node the partition columns are evaluated against,
	// or nil when the partition has no columns.
	Base() *sqlmodel.Node

	// Equal reports structural equality. Partitions of different concrete
	// types are never equal.
	Equal(other Partition) bool

	partition()
}

// GroupBy is a plain grouping: aggregations collapse every group to one
// row keyed by the index columns.
type GroupBy struct {
	index []*Column
}

func (*GroupBy) partition() {}

// NewGroupBy groups by cols. The columns must share one base node and must
// not be pending aggregations themselves.
func NewGroupBy(cols ...*Column) (*GroupBy, error) {
	index, err := partitionColumns("group by", cols)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "group by", "at least one column is required")
	}
	return &GroupBy{index: index}, nil
}

func partitionColumns(op string, cols []*Column) ([]*Column, error) {
	out := make([]*Column, 0, len(cols))
	seen := map[string]bool{}
	for _, c := range cols {
		if c == nil {
			return nil, newError(ErrCodeInvalidArgument, op, "column must not be nil")
		}
		if len(out) > 0 && !out[0].base.Equal(c.base) {
			return nil, errBaseMismatch(op)
		}
		if c.groupBy != nil {
			return nil, newError(ErrCodeUnsupportedOperation, op,
				"cannot partition by %q: it is a pending aggregation", c.name)
		}
		if seen[c.name] {
			return nil, newError(ErrCodeDuplicateName, op, "column %q is used twice", c.name)
		}
		seen[c.name] = true

		stripped, err := c.CopyOverride(WithIndex(nil), WithSortAscending(nil))
		if err != nil {
			return nil, err
		}
		out = append(out, stripped)
	}
	return out, nil
}

// wholeRelation groups every row of c's base into a single group keyed by
// a constant.
func wholeRelation(c *Column) *GroupBy {
	return &GroupBy{index: []*Column{{
		engine:     c.engine,
		base:       c.base,
		name:       "index",
		expression: expr.ConstValue("", expr.Raw("1")),
		kind:       dtype.MustLookup(dtype.Int64),
	}}}
}

// Index returns a copy of the grouping columns.
func (g *GroupBy) Index() []*Column {
	out := make([]*Column, len(g.index))
	copy(out, g.index)
	return out
}

// Base returns the node the grouping columns are evaluated against.
func (g *GroupBy) Base() *sqlmodel.Node {
	if len(g.index) == 0 {
		return nil
	}
	return g.index[0].base
}

// Expressions returns the expressions to group by. Constant keys are
// skipped; they do not partition anything.
func (g *GroupBy) Expressions() []*expr.Expression {
	var out []*expr.Expression
	for _, c := range g.index {
		if c.expression.IsConstant() {
			continue
		}
		out = append(out, c.expression)
	}
	return out
}

// Equal compares the grouping columns, ignoring their own groupings.
func (g *GroupBy) Equal(other Partition) bool {
	o, ok := other.(*GroupBy)
	if !ok || g == nil || o == nil {
		return ok && g == o
	}
	return columnsEqual(g.index, o.index, true)
}

func (g *GroupBy) String() string {
	names := make([]string, len(g.index))
	for i, c := range g.index {
		names[i] = c.name
	}
	return "GroupBy" + formatNames(names)
}

func groupByEqual(a, b *GroupBy) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}
