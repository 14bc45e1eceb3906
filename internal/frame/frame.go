package frame

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/expr"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// prevKey is the reference key of a frame's base node in its model.
const prevKey = "prev"

// ColumnSpec declares a column of a source relation.
type ColumnSpec struct {
	Name  string `json:"name" yaml:"name"`
	DType string `json:"dtype" yaml:"dtype"`
}

// Frame is an immutable tabular snapshot: index and data columns over one
// base node, plus optional grouping, ordering and filters. Model compiles it
// to a graph node.
type Frame struct {
	engine       *engine.Engine
	base         *sqlmodel.Node
	index        []*Column
	data         []*Column
	groupBy      *GroupBy
	orderBy      []SortColumn
	where        []*expr.Expression
	having       []*expr.Expression
	placeholders map[string]string
}

// FromTable creates a frame that reads all rows of a table.
func FromTable(eng *engine.Engine, table string, index, data []ColumnSpec) (*Frame, error) {
	template := "select * from " + sqlmodel.EscapeTemplate(sqlmodel.QuoteIdentifier(table))
	node, err := sqlmodel.Build(table, template, nil, nil)
	if err != nil {
		return nil, err
	}
	return FromModel(eng, node, index, data)
}

// FromSQL creates a frame over an arbitrary select statement.
func FromSQL(eng *engine.Engine, name, query string, index, data []ColumnSpec) (*Frame, error) {
	node, err := sqlmodel.Build(name, sqlmodel.EscapeTemplate(query), nil, nil)
	if err != nil {
		return nil, err
	}
	return FromModel(eng, node, index, data)
}

// FromModel creates a frame over node, whose output has the given columns.
func FromModel(eng *engine.Engine, node *sqlmodel.Node, index, data []ColumnSpec) (*Frame, error) {
	if node == nil {
		return nil, newError(ErrCodeInvalidArgument, "from model", "node must not be nil")
	}
	if len(index)+len(data) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "from model", "at least one column is required")
	}

	seen := map[string]bool{}
	build := func(spec ColumnSpec, idx []*Column) (*Column, error) {
		if spec.Name == "" {
			return nil, newError(ErrCodeInvalidArgument, "from model", "column name must not be empty")
		}
		if seen[spec.Name] {
			return nil, newError(ErrCodeDuplicateName, "from model", "column %q is declared twice", spec.Name)
		}
		seen[spec.Name] = true
		return NewColumn(eng, node, idx, spec.Name, expr.ColumnReference(spec.Name), spec.DType)
	}

	f := &Frame{engine: eng, base: node}
	for _, spec := range index {
		c, err := build(spec, nil)
		if err != nil {
			return nil, err
		}
		f.index = append(f.index, c)
	}
	for _, spec := range data {
		c, err := build(spec, f.index)
		if err != nil {
			return nil, err
		}
		f.data = append(f.data, c)
	}
	return f, nil
}

func (f *Frame) clone() *Frame {
	out := *f
	out.index = slices.Clone(f.index)
	out.data = slices.Clone(f.data)
	out.orderBy = slices.Clone(f.orderBy)
	out.where = slices.Clone(f.where)
	out.having = slices.Clone(f.having)
	out.placeholders = maps.Clone(f.placeholders)
	return &out
}

// Engine returns the engine handle, which may be nil.
func (f *Frame) Engine() *engine.Engine { return f.engine }

// Base returns the node the frame's columns are evaluated against.
func (f *Frame) Base() *sqlmodel.Node { return f.base }

// Index returns a copy of the index columns.
func (f *Frame) Index() []*Column { return slices.Clone(f.index) }

// Columns returns a copy of the data columns.
func (f *Frame) Columns() []*Column { return slices.Clone(f.data) }

// GroupBy returns the grouping, or nil.
func (f *Frame) GroupBy() *GroupBy { return f.groupBy }

// Names returns the index and data column names in output order.
func (f *Frame) Names() []string {
	cols := f.allColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

func (f *Frame) allColumns() []*Column {
	cols := make([]*Column, 0, len(f.index)+len(f.data))
	cols = append(cols, f.index...)
	return append(cols, f.data...)
}

// Column returns the data column called name.
func (f *Frame) Column(name string) (*Column, error) {
	for _, c := range f.data {
		if c.name == name {
			return c, nil
		}
	}
	return nil, f.unknownColumn(name)
}

// lookup finds an index or data column.
func (f *Frame) lookup(name string) (*Column, error) {
	for _, c := range f.allColumns() {
		if c.name == name {
			return c, nil
		}
	}
	return nil, f.unknownColumn(name)
}

func (f *Frame) unknownColumn(name string) error {
	return newError(ErrCodeUnknownColumn, "column", "no column %q, have %s", name, formatNames(f.Names()))
}

// SetColumn adds c as a data column, replacing any column with the same
// name. A grouped frame only takes columns aggregated by its grouping, or
// constants.
func (f *Frame) SetColumn(c *Column) (*Frame, error) {
	if c == nil {
		return nil, newError(ErrCodeInvalidArgument, "set column", "column must not be nil")
	}
	if !f.base.Equal(c.base) {
		return nil, errBaseMismatch("set column")
	}
	if !groupByEqual(f.groupBy, c.groupBy) && !(c.groupBy == nil && c.expression.IsConstant()) {
		return nil, newError(ErrCodeConfigConflict, "set column",
			"column %q is grouped by %v but the frame is grouped by %v", c.name, c.groupBy, f.groupBy)
	}
	for _, idx := range f.index {
		if idx.name == c.name {
			return nil, newError(ErrCodeDuplicateName, "set column", "%q is an index column", c.name)
		}
	}

	col, err := c.CopyOverride(WithIndex(f.index))
	if err != nil {
		return nil, err
	}
	out := f.clone()
	for i, existing := range out.data {
		if existing.name == c.name {
			out.data[i] = col
			return out, nil
		}
	}
	out.data = append(out.data, col)
	return out, nil
}

// Filter keeps the rows where cond is true. Conditions on aggregates filter
// groups and need a grouped frame. Conditions on window functions are
// rejected; filter a materialized frame instead.
func (f *Frame) Filter(cond *Column) (*Frame, error) {
	if cond == nil {
		return nil, newError(ErrCodeInvalidArgument, "filter", "condition must not be nil")
	}
	if cond.DType() != dtype.Bool {
		return nil, newError(ErrCodeTypeMismatch, "filter", "condition must be bool, got %s", cond.DType())
	}
	if !f.base.Equal(cond.base) {
		return nil, errBaseMismatch("filter")
	}

	if cond.expression.HasWindowedAggregateFunction() {
		return nil, newError(ErrCodeUnsupportedOperation, "filter",
			"window functions cannot be filtered in place, set the column and Materialize the frame first")
	}

	out := f.clone()
	if !cond.expression.HasAggregateFunction() {
		out.where = append(out.where, cond.expression)
		return out, nil
	}
	if f.groupBy == nil {
		return nil, newError(ErrCodeUnsupportedOperation, "filter", "filtering on an aggregate needs a grouped frame")
	}
	if cond.groupBy != nil && !cond.groupBy.Equal(f.groupBy) {
		return nil, newError(ErrCodeConfigConflict, "filter",
			"condition is grouped by %s but the frame is grouped by %s", cond.groupBy, f.groupBy)
	}
	out.having = append(out.having, cond.expression)
	return out, nil
}

// GroupBy groups the frame by the named columns. Every other column,
// including former index columns, becomes a data column that must be
// aggregated before the frame can be compiled. Grouping an already grouped
// frame materializes it first.
func (f *Frame) GroupBy(names ...string) (*Frame, error) {
	src := f
	if f.groupBy != nil {
		m, err := f.Materialize("grouped")
		if err != nil {
			return nil, err
		}
		src = m
	}

	keys := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := src.lookup(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, c)
	}
	g, err := NewGroupBy(keys...)
	if err != nil {
		return nil, err
	}

	out := src.clone()
	out.groupBy = g
	out.index = g.Index()
	out.orderBy = nil
	out.data = nil
	for _, c := range src.allColumns() {
		if slices.Contains(names, c.name) {
			continue
		}
		col, err := c.CopyOverride(WithIndex(out.index))
		if err != nil {
			return nil, err
		}
		out.data = append(out.data, col)
	}
	return out, nil
}

// Aggregate applies funcs to every data column. An ungrouped frame is
// aggregated as a whole.
func (f *Frame) Aggregate(funcs ...AggFunc) (*Frame, error) {
	if len(f.data) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "aggregate", "frame has no data columns")
	}
	return f.aggregate(func(*Column) []AggFunc { return funcs })
}

// AggregateColumns applies a different set of functions to each named data
// column. Data columns that are not named are dropped from the result.
func (f *Frame) AggregateColumns(funcs map[string][]AggFunc) (*Frame, error) {
	if len(funcs) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "aggregate", "at least one column is required")
	}
	for _, name := range slices.Sorted(maps.Keys(funcs)) {
		if _, err := f.Column(name); err != nil {
			return nil, err
		}
	}
	return f.aggregate(func(c *Column) []AggFunc { return funcs[c.name] })
}

func (f *Frame) aggregate(funcsFor func(*Column) []AggFunc) (*Frame, error) {
	g := f.groupBy
	if g == nil {
		g = wholeRelation(f.data[0])
	}

	out := f.clone()
	out.groupBy = g
	out.index = g.Index()
	out.orderBy = nil
	out.data = nil
	for _, c := range f.data {
		funcs := funcsFor(c)
		if len(funcs) == 0 {
			continue
		}
		results, err := c.ApplyFunc(g, funcs...)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if _, err := out.lookup(r.name); err == nil {
				return nil, newError(ErrCodeDuplicateName, "aggregate", "duplicate result name %q", r.name)
			}
			out.data = append(out.data, r)
		}
	}
	return out, nil
}

// SortValues orders the output by the named columns.
func (f *Frame) SortValues(ascending bool, names ...string) (*Frame, error) {
	if len(names) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "sort values", "at least one column is required")
	}
	out := f.clone()
	out.orderBy = make([]SortColumn, 0, len(names))
	for _, name := range names {
		c, err := f.lookup(name)
		if err != nil {
			return nil, err
		}
		out.orderBy = append(out.orderBy, SortColumn{Column: c, Ascending: ascending})
	}
	return out, nil
}

// SetPlaceholder binds a value to the placeholder called name.
func (f *Frame) SetPlaceholder(name string, value any) (*Frame, error) {
	dt, err := dtype.ValueDType(value)
	if err != nil {
		return nil, err
	}
	k, err := dtype.Lookup(dt)
	if err != nil {
		return nil, err
	}
	e, err := k.ValueToExpression(value)
	if err != nil {
		return nil, err
	}
	fragment, err := e.ToSQL("")
	if err != nil {
		return nil, err
	}
	sql, err := sqlmodel.Render(fragment)
	if err != nil {
		return nil, err
	}

	out := f.clone()
	if out.placeholders == nil {
		out.placeholders = map[string]string{}
	}
	out.placeholders[name] = sql
	return out, nil
}

// Model compiles the frame into a node called name that selects from the
// frame's base.
func (f *Frame) Model(name string) (*sqlmodel.Node, error) {
	cols := f.allColumns()
	if len(cols) == 0 {
		return nil, newError(ErrCodeInvalidArgument, "model", "frame has no columns")
	}
	if f.groupBy != nil {
		for _, c := range f.data {
			if !c.expression.HasAggregateFunction() && !c.expression.IsConstant() {
				return nil, newError(ErrCodeUnsupportedOperation, "model",
					"column %q is neither aggregated nor a grouping key", c.name)
			}
		}
	}

	var sources []*expr.Expression
	selects := make([]string, 0, len(cols))
	for _, c := range cols {
		sql, err := c.ColumnExpression("")
		if err != nil {
			return nil, err
		}
		quoted := sqlmodel.EscapeTemplate(sqlmodel.QuoteIdentifier(c.name))
		if sql == quoted {
			selects = append(selects, quoted)
		} else {
			selects = append(selects, sql+" as "+quoted)
		}
		sources = append(sources, c.expression)
	}

	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" from {" + prevKey + "}")

	if err := writeConditions(&b, " where ", f.where); err != nil {
		return nil, err
	}
	sources = append(sources, f.where...)

	if f.groupBy != nil {
		keys := f.groupBy.Expressions()
		if len(keys) > 0 {
			parts := make([]string, len(keys))
			for i, k := range keys {
				sql, err := k.ToSQL("")
				if err != nil {
					return nil, err
				}
				parts[i] = sql
			}
			b.WriteString(" group by " + strings.Join(parts, ", "))
			sources = append(sources, keys...)
		}
	}

	if err := writeConditions(&b, " having ", f.having); err != nil {
		return nil, err
	}
	sources = append(sources, f.having...)

	if len(f.orderBy) > 0 {
		parts := make([]string, len(f.orderBy))
		for i, s := range f.orderBy {
			sql, err := s.Column.ColumnExpression("")
			if err != nil {
				return nil, err
			}
			parts[i] = sql + " " + s.direction()
			sources = append(sources, s.Column.expression)
		}
		b.WriteString(" order by " + strings.Join(parts, ", "))
	}

	refs := map[string]*sqlmodel.Node{prevKey: f.base}
	values := map[string]string{}
	for _, e := range sources {
		maps.Copy(refs, e.References())
		for _, p := range e.Placeholders() {
			v, ok := f.placeholders[p.Name]
			if !ok {
				return nil, newError(ErrCodeInvalidArgument, "model", "placeholder %q has no value", p.Name)
			}
			values[expr.PlaceholderKey(p.Name)] = v
		}
	}
	return sqlmodel.Build(name, b.String(), refs, values)
}

func writeConditions(b *strings.Builder, keyword string, conds []*expr.Expression) error {
	if len(conds) == 0 {
		return nil
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		sql, err := c.ToSQL("")
		if err != nil {
			return err
		}
		if len(conds) > 1 {
			sql = "(" + sql + ")"
		}
		parts[i] = sql
	}
	b.WriteString(keyword + strings.Join(parts, " and "))
	return nil
}

// Materialize compiles the frame into a node called name and returns a
// plain frame that reads from it.
func (f *Frame) Materialize(name string) (*Frame, error) {
	node, err := f.Model(name)
	if err != nil {
		return nil, err
	}

	out := &Frame{engine: f.engine, base: node}
	for _, c := range f.index {
		out.index = append(out.index, &Column{
			engine:     f.engine,
			base:       node,
			name:       c.name,
			expression: expr.ColumnReference(c.name),
			kind:       c.kind,
		})
	}
	for _, c := range f.data {
		out.data = append(out.data, &Column{
			engine:     f.engine,
			base:       node,
			index:      slices.Clone(out.index),
			name:       c.name,
			expression: expr.ColumnReference(c.name),
			kind:       c.kind,
		})
	}
	return out, nil
}

// CopyOverrideBaseNode returns a copy of f whose columns are evaluated
// against node. node must produce the same columns as the current base.
func (f *Frame) CopyOverrideBaseNode(node *sqlmodel.Node) (*Frame, error) {
	if node == nil {
		return nil, newError(ErrCodeInvalidArgument, "copy", "base node must not be nil")
	}
	return f.rebuild(func(c *Column) { c.base = node }, node, f.engine), nil
}

// WithEngine returns a copy of f bound to eng.
func (f *Frame) WithEngine(eng *engine.Engine) *Frame {
	return f.rebuild(func(c *Column) { c.engine = eng }, f.base, eng)
}

// rebuild copies every column of f through set, keeping index and grouping
// links consistent.
func (f *Frame) rebuild(set func(*Column), base *sqlmodel.Node, eng *engine.Engine) *Frame {
	rebased := map[*Column]*Column{}
	var copyCol func(c *Column) *Column
	copyCol = func(c *Column) *Column {
		if done, ok := rebased[c]; ok {
			return done
		}
		cp := *c
		set(&cp)
		cp.index = make([]*Column, len(c.index))
		for i, idx := range c.index {
			cp.index[i] = copyCol(idx)
		}
		rebased[c] = &cp
		return &cp
	}

	var g *GroupBy
	if f.groupBy != nil {
		g = &GroupBy{index: make([]*Column, len(f.groupBy.index))}
		for i, c := range f.groupBy.index {
			g.index[i] = copyCol(c)
		}
	}

	out := f.clone()
	out.engine = eng
	out.base = base
	out.groupBy = g
	for i, c := range f.index {
		out.index[i] = copyCol(c)
	}
	for i, c := range f.data {
		cp := copyCol(c)
		if cp.groupBy != nil {
			cp.groupBy = g
		}
		out.data[i] = cp
	}
	for i, s := range f.orderBy {
		out.orderBy[i] = SortColumn{Column: copyCol(s.Column), Ascending: s.Ascending}
	}
	return out
}

// Equal reports structural equality of two frames.
func (f *Frame) Equal(o *Frame) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if f.engine != o.engine || !f.base.Equal(o.base) {
		return false
	}
	if !columnsEqual(f.index, o.index, false) || !columnsEqual(f.data, o.data, false) {
		return false
	}
	if !groupByEqual(f.groupBy, o.groupBy) {
		return false
	}
	if len(f.orderBy) != len(o.orderBy) {
		return false
	}
	for i := range f.orderBy {
		if f.orderBy[i].Ascending != o.orderBy[i].Ascending || !f.orderBy[i].Column.Equal(o.orderBy[i].Column) {
			return false
		}
	}
	return expressionsEqual(f.where, o.where) &&
		expressionsEqual(f.having, o.having) &&
		maps.Equal(f.placeholders, o.placeholders)
}

func expressionsEqual(a, b []*expr.Expression) bool {
	return slices.EqualFunc(a, b, (*expr.Expression).Equal)
}

// SQL compiles the frame to a single select statement.
func (f *Frame) SQL() (string, error) {
	node, err := f.Model("frame")
	if err != nil {
		return "", err
	}
	return node.SQL()
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%s, base=%s)", formatNames(f.Names()), f.base.Name())
}
