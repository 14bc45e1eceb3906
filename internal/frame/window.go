package frame

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/lazyq/internal/expr"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// FrameMode selects how window frame offsets are counted.
type FrameMode string

const (
	FrameRows  FrameMode = "ROWS"
	FrameRange FrameMode = "RANGE"
)

type boundaryKind uint8

const (
	boundUnboundedPreceding boundaryKind = iota
	boundPreceding
	boundCurrentRow
	boundFollowing
	boundUnboundedFollowing
)

// Boundary is one end of a window frame.
type Boundary struct {
	kind   boundaryKind
	offset int
}

var (
	UnboundedPreceding = Boundary{kind: boundUnboundedPreceding}
	CurrentRow         = Boundary{kind: boundCurrentRow}
	UnboundedFollowing = Boundary{kind: boundUnboundedFollowing}
)

// Preceding is the boundary n rows (or values) before the current row.
func Preceding(n int) Boundary { return Boundary{kind: boundPreceding, offset: n} }

// Following is the boundary n rows (or values) after the current row.
func Following(n int) Boundary { return Boundary{kind: boundFollowing, offset: n} }

// SQL renders the boundary.
func (b Boundary) SQL() string {
	switch b.kind {
	case boundUnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case boundPreceding:
		return fmt.Sprintf("%d PRECEDING", b.offset)
	case boundFollowing:
		return fmt.Sprintf("%d FOLLOWING", b.offset)
	case boundUnboundedFollowing:
		return "UNBOUNDED FOLLOWING"
	default:
		return "CURRENT ROW"
	}
}

func (b Boundary) position() int {
	switch b.kind {
	case boundUnboundedPreceding:
		return math.MinInt
	case boundPreceding:
		return -b.offset
	case boundFollowing:
		return b.offset
	case boundUnboundedFollowing:
		return math.MaxInt
	default:
		return 0
	}
}

func (b Boundary) hasOffset() bool {
	return b.kind == boundPreceding || b.kind == boundFollowing
}

// SortColumn is one ORDER BY key.
type SortColumn struct {
	Column    *Column
	Ascending bool
}

// Asc orders by c ascending.
func Asc(c *Column) SortColumn { return SortColumn{Column: c, Ascending: true} }

// Desc orders by c descending.
func Desc(c *Column) SortColumn { return SortColumn{Column: c, Ascending: false} }

func (s SortColumn) direction() string {
	if s.Ascending {
		return "asc"
	}
	return "desc"
}

// Window is a grouping that keeps every row: functions evaluated over a
// window are computed per row from the rows in its frame.
type Window struct {
	partitionBy []*Column
	orderBy     []SortColumn
	mode        FrameMode
	start       Boundary
	end         Boundary
	minValues   int
}

func (*Window) partition() {}

// WindowOption configures NewWindow.
type WindowOption func(*Window)

// WithOrderBy sets the ORDER BY keys of the window.
func WithOrderBy(cols ...SortColumn) WindowOption {
	return func(w *Window) {
		w.orderBy = append([]SortColumn(nil), cols...)
	}
}

// WithFrame sets the frame clause.
func WithFrame(mode FrameMode, start, end Boundary) WindowOption {
	return func(w *Window) {
		w.mode = mode
		w.start = start
		w.end = end
	}
}

// WithMinValues makes window results NULL unless the frame holds at least
// n rows.
func WithMinValues(n int) WindowOption {
	return func(w *Window) {
		w.minValues = n
	}
}

// NewWindow creates a window partitioned like partition, which may be nil
// to span the whole relation. The default frame is RANGE BETWEEN UNBOUNDED
// PRECEDING AND CURRENT ROW.
func NewWindow(partition *GroupBy, opts ...WindowOption) (*Window, error) {
	w := &Window{
		mode:  FrameRange,
		start: UnboundedPreceding,
		end:   CurrentRow,
	}
	if partition != nil {
		w.partitionBy = partition.Index()
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Window) validate() error {
	if w.mode != FrameRows && w.mode != FrameRange {
		return newError(ErrCodeInvalidArgument, "window", "unknown frame mode %q", w.mode)
	}
	if w.start.kind == boundUnboundedFollowing {
		return newError(ErrCodeInvalidArgument, "window", "frame cannot start at UNBOUNDED FOLLOWING")
	}
	if w.end.kind == boundUnboundedPreceding {
		return newError(ErrCodeInvalidArgument, "window", "frame cannot end at UNBOUNDED PRECEDING")
	}
	for _, b := range []Boundary{w.start, w.end} {
		if b.hasOffset() && b.offset < 0 {
			return newError(ErrCodeInvalidArgument, "window", "frame offset %d is negative", b.offset)
		}
	}
	if w.start.position() > w.end.position() {
		return newError(ErrCodeInvalidArgument, "window",
			"frame start %s comes after frame end %s", w.start.SQL(), w.end.SQL())
	}
	if w.mode == FrameRange && (w.start.hasOffset() || w.end.hasOffset()) && len(w.orderBy) != 1 {
		return newError(ErrCodeInvalidArgument, "window",
			"RANGE frames with an offset need exactly one order by column, got %d", len(w.orderBy))
	}
	if w.minValues < 0 {
		return newError(ErrCodeInvalidArgument, "window", "min values %d is negative", w.minValues)
	}

	var base *sqlmodel.Node
	for _, c := range w.columns() {
		if c == nil {
			return newError(ErrCodeInvalidArgument, "window", "column must not be nil")
		}
		if base == nil {
			base = c.base
		} else if !base.Equal(c.base) {
			return errBaseMismatch("window")
		}
	}
	return nil
}

func (w *Window) columns() []*Column {
	cols := make([]*Column, 0, len(w.partitionBy)+len(w.orderBy))
	cols = append(cols, w.partitionBy...)
	for _, s := range w.orderBy {
		cols = append(cols, s.Column)
	}
	return cols
}

// Index returns a copy of the partitioning columns.
func (w *Window) Index() []*Column {
	out := make([]*Column, len(w.partitionBy))
	copy(out, w.partitionBy)
	return out
}

// Base returns the node the window columns are evaluated against, or nil.
func (w *Window) Base() *sqlmodel.Node {
	cols := w.columns()
	if len(cols) == 0 {
		return nil
	}
	return cols[0].base
}

// OrderBy returns a copy of the order keys.
func (w *Window) OrderBy() []SortColumn {
	return append([]SortColumn(nil), w.orderBy...)
}

// MinValues returns the configured minimum frame size.
func (w *Window) MinValues() int { return w.minValues }

// FrameClause renders the frame, e.g. "RANGE BETWEEN UNBOUNDED PRECEDING
// AND CURRENT ROW".
func (w *Window) FrameClause() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", w.mode, w.start.SQL(), w.end.SQL())
}

// clause builds the body of the OVER (...) clause.
func (w *Window) clause() (*expr.Expression, error) {
	var parts []string
	var args []expr.Source

	if len(w.partitionBy) > 0 {
		slots := make([]string, len(w.partitionBy))
		for i, c := range w.partitionBy {
			slots[i] = "{}"
			args = append(args, c)
		}
		parts = append(parts, "partition by "+strings.Join(slots, ", "))
	}
	if len(w.orderBy) > 0 {
		slots := make([]string, len(w.orderBy))
		for i, s := range w.orderBy {
			slots[i] = "{} " + s.direction()
			args = append(args, s.Column)
		}
		parts = append(parts, "order by "+strings.Join(slots, ", "))
	}
	parts = append(parts, w.FrameClause())

	return expr.Construct(strings.Join(parts, " "), args...)
}

// WindowExpression wraps e in an OVER clause for this window. With min
// values set, the result is NULL unless the frame holds enough rows.
func (w *Window) WindowExpression(e *expr.Expression) (*expr.Expression, error) {
	clause, err := w.clause()
	if err != nil {
		return nil, err
	}
	if w.minValues > 0 {
		return expr.KindWindowFunction.Construct(
			fmt.Sprintf("CASE WHEN (count(1) OVER ({})) >= %d THEN {} OVER ({}) ELSE NULL END", w.minValues),
			clause, e, clause)
	}
	return expr.KindWindowFunction.Construct("{} OVER ({})", e, clause)
}

// Equal compares partitioning, ordering, frame and min values.
func (w *Window) Equal(other Partition) bool {
	o, ok := other.(*Window)
	if !ok || w == nil || o == nil {
		return ok && w == o
	}
	if w.mode != o.mode || w.start != o.start || w.end != o.end || w.minValues != o.minValues {
		return false
	}
	if !columnsEqual(w.partitionBy, o.partitionBy, true) {
		return false
	}
	if len(w.orderBy) != len(o.orderBy) {
		return false
	}
	for i := range w.orderBy {
		if w.orderBy[i].Ascending != o.orderBy[i].Ascending ||
			!w.orderBy[i].Column.equal(o.orderBy[i].Column, true) {
			return false
		}
	}
	return true
}
