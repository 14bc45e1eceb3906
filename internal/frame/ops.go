package frame

import (
	"github.com/roach88/lazyq/internal/dtype"
	"github.com/roach88/lazyq/internal/expr"
)

// coerce turns other into a column on c's base. Literals become constant
// columns; nil becomes a NULL of c's dtype.
func (c *Column) coerce(other any) (*Column, error) {
	switch v := other.(type) {
	case *Column:
		if v == nil {
			return nil, newError(ErrCodeInvalidArgument, "coerce", "column must not be nil")
		}
		return v, nil
	case nil:
		return fromConstAs(c, nil, c.name, c.DType())
	default:
		return FromConst(c, v, c.name)
	}
}

// binaryOperation applies op with c as the left-hand side. other is a
// *Column or a Go literal.
func (c *Column) binaryOperation(other any, op dtype.Operator) (*Column, error) {
	rhs, err := c.coerce(other)
	if err != nil {
		return nil, err
	}
	if !c.base.Equal(rhs.base) {
		return nil, errBaseMismatch(string(op))
	}

	support, ok := c.kind.Operator(op)
	if !ok {
		return nil, newError(ErrCodeUnsupportedOperation, string(op),
			"%s is not supported for %s", op, c.DType())
	}
	if !support.Accepts(rhs.DType()) {
		return nil, newError(ErrCodeTypeMismatch, string(op),
			"%s not supported between %s and %s", op, c.DType(), rhs.DType())
	}

	e, err := expr.Construct(support.TemplateFor(rhs.DType()), c, rhs)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithDType(support.ResultFor(c.DType(), rhs.DType())),
		WithExpression(e),
	}
	switch {
	case c.groupBy == nil && rhs.groupBy != nil:
		opts = append(opts, WithGroupBy(rhs.groupBy), WithIndex(rhs.index))
	case c.groupBy != nil && rhs.groupBy != nil && !c.groupBy.Equal(rhs.groupBy):
		return nil, newError(ErrCodeConfigConflict, string(op),
			"operands are aggregated by different groupings: %s and %s", c.groupBy, rhs.groupBy)
	}
	return c.CopyOverride(opts...)
}

func (c *Column) unaryOperation(template, result string) (*Column, error) {
	e, err := expr.Construct(template, c)
	if err != nil {
		return nil, err
	}
	if result == "" {
		result = c.DType()
	}
	return c.CopyOverride(WithDType(result), WithExpression(e))
}

// Add returns c + other.
func (c *Column) Add(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpAdd) }

// Concat is Add for strings.
func (c *Column) Concat(other any) (*Column, error) {
	if c.DType() != dtype.String {
		return nil, newError(ErrCodeUnsupportedOperation, "concat", "concat is not supported for %s", c.DType())
	}
	return c.binaryOperation(other, dtype.OpAdd)
}

// Sub returns c - other.
func (c *Column) Sub(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpSub) }

// Mul returns c * other.
func (c *Column) Mul(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpMul) }

// Div returns c / other as a float.
func (c *Column) Div(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpDiv) }

// FloorDiv returns floor(c / other) as an integer.
func (c *Column) FloorDiv(other any) (*Column, error) {
	return c.binaryOperation(other, dtype.OpFloorDiv)
}

// Mod returns c - (c // other) * other.
func (c *Column) Mod(other any) (*Column, error) {
	rhs, err := c.coerce(other)
	if err != nil {
		return nil, err
	}
	q, err := c.FloorDiv(rhs)
	if err != nil {
		return nil, err
	}
	p, err := q.Mul(rhs)
	if err != nil {
		return nil, err
	}
	return c.Sub(p)
}

// Pow returns c raised to other.
func (c *Column) Pow(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpPow) }

// And is the boolean conjunction.
func (c *Column) And(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpAnd) }

// Or is the boolean disjunction.
func (c *Column) Or(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpOr) }

// Xor is the boolean exclusive or.
func (c *Column) Xor(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpXor) }

// Eq returns c = other.
func (c *Column) Eq(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpEq) }

// Ne returns c <> other.
func (c *Column) Ne(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpNe) }

// Lt returns c < other.
func (c *Column) Lt(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpLt) }

// Le returns c <= other.
func (c *Column) Le(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpLe) }

// Gt returns c > other.
func (c *Column) Gt(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpGt) }

// Ge returns c >= other.
func (c *Column) Ge(other any) (*Column, error) { return c.binaryOperation(other, dtype.OpGe) }

// Compare applies a comparison operator by name.
func (c *Column) Compare(op dtype.Operator, other any) (*Column, error) {
	if !op.IsComparison() {
		return nil, newError(ErrCodeInvalidArgument, string(op), "%s is not a comparison", op)
	}
	return c.binaryOperation(other, op)
}

// ShiftLeft is never supported.
func (c *Column) ShiftLeft(other any) (*Column, error) {
	return nil, newError(ErrCodeUnsupportedOperation, string(dtype.OpLShift),
		"bit shifts are not supported for %s", c.DType())
}

// ShiftRight is never supported.
func (c *Column) ShiftRight(other any) (*Column, error) {
	return nil, newError(ErrCodeUnsupportedOperation, string(dtype.OpRShift),
		"bit shifts are not supported for %s", c.DType())
}

// Invert negates a boolean column.
func (c *Column) Invert() (*Column, error) {
	if c.DType() != dtype.Bool {
		return nil, newError(ErrCodeUnsupportedOperation, "invert", "invert is not supported for %s", c.DType())
	}
	return c.unaryOperation("NOT ({})", dtype.Bool)
}

// IsNull returns a boolean column that is true where c is NULL.
func (c *Column) IsNull() (*Column, error) {
	return c.unaryOperation("({}) is null", dtype.Bool)
}

// NotNull returns a boolean column that is true where c is not NULL.
func (c *Column) NotNull() (*Column, error) {
	return c.unaryOperation("({}) is not null", dtype.Bool)
}

// FillNA replaces NULLs with value, which is encoded with c's dtype.
func (c *Column) FillNA(value any) (*Column, error) {
	if value == nil {
		return nil, newError(ErrCodeInvalidArgument, "fillna", "fill value must not be nil")
	}
	fill, err := fromConstAs(c, value, c.name, c.DType())
	if err != nil {
		return nil, err
	}
	e, err := expr.Construct("COALESCE({}, {})", c, fill)
	if err != nil {
		return nil, err
	}
	return c.CopyOverride(WithExpression(e))
}

// AsType converts c to the named dtype. Converting to c's own dtype or an
// alias of it returns c unchanged.
func (c *Column) AsType(name string) (*Column, error) {
	if dtype.Matches(c.kind, name) {
		return c, nil
	}
	target, err := dtype.Lookup(name)
	if err != nil {
		return nil, err
	}
	e, err := target.CastFrom(c.DType(), c.expression)
	if err != nil {
		return nil, err
	}
	return c.CopyOverride(WithDType(target.DType()), WithExpression(e))
}
