package dtype

import "slices"

// Operator is a binary operator between two columns.
type Operator string

const (
	OpAdd      Operator = "add"
	OpSub      Operator = "sub"
	OpMul      Operator = "mul"
	OpDiv      Operator = "truediv"
	OpFloorDiv Operator = "floordiv"
	OpPow      Operator = "pow"
	OpLShift   Operator = "lshift"
	OpRShift   Operator = "rshift"

	OpEq Operator = "eq"
	OpNe Operator = "ne"
	OpLt Operator = "lt"
	OpLe Operator = "le"
	OpGt Operator = "gt"
	OpGe Operator = "ge"

	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpXor Operator = "xor"
)

// ComparisonSQL maps comparison operators to their SQL spelling.
var ComparisonSQL = map[Operator]string{
	OpEq: "=",
	OpNe: "<>",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// IsComparison reports whether op is a comparison operator.
func (op Operator) IsComparison() bool {
	_, ok := ComparisonSQL[op]
	return ok
}

// OpSupport describes how a kind supports an operator.
type OpSupport struct {
	// RHS lists the right-hand dtypes the operator accepts.
	RHS []string

	// Template is the expression template with two {} slots.
	Template string

	// TemplateByRHS overrides Template for specific right-hand dtypes.
	TemplateByRHS map[string]string

	// Result is the result dtype. Empty means the left-hand dtype.
	Result string

	// ResultByRHS overrides Result for specific right-hand dtypes.
	ResultByRHS map[string]string
}

// Accepts reports whether rhs is a permitted right-hand dtype.
func (o OpSupport) Accepts(rhs string) bool {
	return slices.Contains(o.RHS, rhs)
}

// TemplateFor returns the template to use against rhs.
func (o OpSupport) TemplateFor(rhs string) string {
	if t, ok := o.TemplateByRHS[rhs]; ok {
		return t
	}
	return o.Template
}

// ResultFor returns the result dtype of lhs op rhs.
func (o OpSupport) ResultFor(lhs, rhs string) string {
	if r, ok := o.ResultByRHS[rhs]; ok {
		return r
	}
	if o.Result != "" {
		return o.Result
	}
	return lhs
}

func comparisons(rhs ...string) map[Operator]OpSupport {
	ops := make(map[Operator]OpSupport, len(ComparisonSQL))
	for op, sql := range ComparisonSQL {
		ops[op] = OpSupport{RHS: rhs, Template: "({}) " + sql + " ({})", Result: Bool}
	}
	return ops
}

func merge(tables ...map[Operator]OpSupport) map[Operator]OpSupport {
	out := map[Operator]OpSupport{}
	for _, t := range tables {
		for op, s := range t {
			out[op] = s
		}
	}
	return out
}
