package frame

import (
	"fmt"
	"slices"

	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/expr"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// Column is an immutable typed column of a relation. Its expression is
// evaluated against the base node. A column with a GroupBy is a pending
// aggregation: it can only be evaluated inside a frame with the same
// grouping.
type Column struct {
	engine        *engine.Engine
	base          *sqlmodel.Node
	index         []*Column
	name          string
	expression    *expr.Expression
	kind          dtype.Kind
	groupBy       *GroupBy
	sortAscending *bool
}

// NewColumn creates a column of the given dtype.
func NewColumn(eng *engine.Engine, base *sqlmodel.Node, index []*Column, name string, e *expr.Expression, dtypeName string) (*Column, error) {
	if base == nil {
		return nil, newError(ErrCodeInvalidArgument, "new column", "base node must not be nil")
	}
	if e == nil {
		return nil, newError(ErrCodeInvalidArgument, "new column", "expression must not be nil")
	}
	k, err := dtype.Lookup(dtypeName)
	if err != nil {
		return nil, err
	}
	return &Column{
		engine:     eng,
		base:       base,
		index:      slices.Clone(index),
		name:       name,
		expression: e,
		kind:       k,
	}, nil
}

// FromConst creates a constant column that shares base's engine, base node
// and index.
func FromConst(base *Column, value any, name string) (*Column, error) {
	dt, err := dtype.ValueDType(value)
	if err != nil {
		return nil, err
	}
	return fromConstAs(base, value, name, dt)
}

func fromConstAs(base *Column, value any, name, dt string) (*Column, error) {
	k, err := dtype.Lookup(dt)
	if err != nil {
		return nil, err
	}
	e, err := k.ValueToExpression(value)
	if err != nil {
		return nil, err
	}
	return &Column{
		engine:     base.engine,
		base:       base.base,
		index:      slices.Clone(base.index),
		name:       name,
		expression: e,
		kind:       k,
	}, nil
}

// AsExpression returns the column's expression, so columns can be used as
// expr.Construct arguments.
func (c *Column) AsExpression() *expr.Expression {
	if c == nil {
		return nil
	}
	return c.expression
}

// Engine returns the engine handle, which may be nil.
func (c *Column) Engine() *engine.Engine { return c.engine }

// Base returns the node the column's expression is evaluated against.
func (c *Column) Base() *sqlmodel.Node { return c.base }

// Index returns a copy of the index columns.
func (c *Column) Index() []*Column { return slices.Clone(c.index) }

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Expression returns the column expression.
func (c *Column) Expression() *expr.Expression { return c.expression }

// DType returns the canonical dtype name.
func (c *Column) DType() string { return c.kind.DType() }

// Kind returns the registered kind.
func (c *Column) Kind() dtype.Kind { return c.kind }

// GroupBy returns the pending grouping, or nil.
func (c *Column) GroupBy() *GroupBy { return c.groupBy }

// SortAscending reports the sort direction and whether one is set.
func (c *Column) SortAscending() (ascending, sorted bool) {
	if c.sortAscending == nil {
		return false, false
	}
	return *c.sortAscending, true
}

// ColumnExpression renders the column's expression against alias.
func (c *Column) ColumnExpression(alias string) (string, error) {
	return c.expression.ToSQL(alias)
}

// Option overrides one field in CopyOverride. Fields without an option
// keep their current value.
type Option func(*Column) error

// WithDType switches the column to another registered kind.
func WithDType(name string) Option {
	return func(c *Column) error {
		k, err := dtype.Lookup(name)
		if err != nil {
			return err
		}
		c.kind = k
		return nil
	}
}

// WithEngine replaces the engine handle.
func WithEngine(eng *engine.Engine) Option {
	return func(c *Column) error {
		c.engine = eng
		return nil
	}
}

// WithBaseNode replaces the base node.
func WithBaseNode(n *sqlmodel.Node) Option {
	return func(c *Column) error {
		if n == nil {
			return newError(ErrCodeInvalidArgument, "copy", "base node must not be nil")
		}
		c.base = n
		return nil
	}
}

// WithIndex replaces the index columns.
func WithIndex(index []*Column) Option {
	return func(c *Column) error {
		c.index = slices.Clone(index)
		return nil
	}
}

// WithName renames the column.
func WithName(name string) Option {
	return func(c *Column) error {
		c.name = name
		return nil
	}
}

// WithExpression replaces the expression.
func WithExpression(e *expr.Expression) Option {
	return func(c *Column) error {
		if e == nil {
			return newError(ErrCodeInvalidArgument, "copy", "expression must not be nil")
		}
		c.expression = e
		return nil
	}
}

// WithGroupBy sets the pending grouping. WithGroupBy(nil) clears it.
func WithGroupBy(g *GroupBy) Option {
	return func(c *Column) error {
		c.groupBy = g
		return nil
	}
}

// WithSortAscending sets the sort direction. nil clears it.
func WithSortAscending(ascending *bool) Option {
	return func(c *Column) error {
		if ascending == nil {
			c.sortAscending = nil
			return nil
		}
		v := *ascending
		c.sortAscending = &v
		return nil
	}
}

// CopyOverride returns a copy of c with opts applied.
func (c *Column) CopyOverride(opts ...Option) (*Column, error) {
	out := *c
	out.index = slices.Clone(c.index)
	for _, opt := range opts {
		if err := opt(&out); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// SortValues returns a copy of c marked with a sort direction.
func (c *Column) SortValues(ascending bool) (*Column, error) {
	return c.CopyOverride(WithSortAscending(&ascending))
}

// ToFrame wraps c in a single-column frame with c's index and grouping.
func (c *Column) ToFrame() *Frame {
	return &Frame{
		engine:  c.engine,
		base:    c.base,
		index:   slices.Clone(c.index),
		data:    []*Column{c},
		groupBy: c.groupBy,
	}
}

func (c *Column) String() string {
	return fmt.Sprintf("Column(%s, %s)", c.name, c.kind.DType())
}
