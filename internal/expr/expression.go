package expr

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/lazyq/internal/sqlmodel"
)

// Kind tags the role of an expression.
type Kind uint8

const (
	KindPlain Kind = iota
	KindNonAtomic
	KindIndependentSubquery
	KindSingleValue
	KindConstValue
	KindAggregateFunction
	KindWindowFunction
)

var kindNames = map[Kind]string{
	KindPlain:               "Expression",
	KindNonAtomic:           "NonAtomicExpression",
	KindIndependentSubquery: "IndependentSubqueryExpression",
	KindSingleValue:         "SingleValueExpression",
	KindConstValue:          "ConstValueExpression",
	KindAggregateFunction:   "AggregateFunctionExpression",
	KindWindowFunction:      "WindowFunctionExpression",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Source is anything that can be used as an expression argument, such as an
// *Expression or a typed column.
type Source interface {
	AsExpression() *Expression
}

// Expression is an immutable sequence of tokens and nested expressions.
type Expression struct {
	kind  Kind
	name  string
	items []Item
}

func (*Expression) exprItem() {}

// AsExpression returns e itself.
func (e *Expression) AsExpression() *Expression { return e }

// New creates a plain expression. A single plain *Expression argument is
// absorbed: its items are reused rather than nested.
func New(items ...Item) *Expression {
	return KindPlain.New(items...)
}

// New creates an expression of kind k. A single plain *Expression argument
// is absorbed; marker expressions are nested as a single child.
func (k Kind) New(items ...Item) *Expression {
	if len(items) == 1 {
		if inner, ok := items[0].(*Expression); ok && inner.kind == KindPlain {
			items = inner.items
		}
	}
	return &Expression{kind: k, items: slices.Clone(items)}
}

// NonAtomic wraps items in an expression that is parenthesized when used
// as a Construct argument.
func NonAtomic(items ...Item) *Expression { return KindNonAtomic.New(items...) }

// IndependentSubquery marks items as a non-correlated subquery.
func IndependentSubquery(items ...Item) *Expression { return KindIndependentSubquery.New(items...) }

// SingleValue marks items as evaluating to a single value.
func SingleValue(items ...Item) *Expression { return KindSingleValue.New(items...) }

// AggregateFunction marks items as an aggregate function call.
func AggregateFunction(items ...Item) *Expression { return KindAggregateFunction.New(items...) }

// WindowFunction marks items as a windowed function call.
func WindowFunction(items ...Item) *Expression { return KindWindowFunction.New(items...) }

// ConstValue marks items as a constant, optionally named.
func ConstValue(name string, items ...Item) *Expression {
	e := KindConstValue.New(items...)
	e.name = name
	return e
}

// Raw creates an expression holding literal SQL.
func Raw(sql string) *Expression { return New(RawToken{Raw: sql}) }

// Identifier creates an expression holding a quoted identifier.
func Identifier(name string) *Expression { return Raw(sqlmodel.QuoteIdentifier(name)) }

// Placeholder creates an expression holding a typed placeholder.
func Placeholder(dtype, name string) *Expression {
	return New(PlaceholderToken{DType: dtype, Name: name})
}

// ColumnReference creates an expression referencing a column by name.
func ColumnReference(name string) *Expression {
	return New(ColumnReferenceToken{ColumnName: name})
}

// ModelReference creates an expression embedding another graph node.
func ModelReference(model *sqlmodel.Node) *Expression {
	return New(ModelReferenceToken{Model: model})
}

// StringValue creates an expression holding a string literal.
func StringValue(value string) *Expression {
	return New(StringValueToken{Value: value})
}

// VariableStringValue creates an expression holding a string literal bound
// to a variable.
func VariableStringValue(value, name string) *Expression {
	return New(VariableStringValueToken{Value: value, ReferenceName: name})
}

// Construct builds a plain expression from a template. See Kind.Construct.
func Construct(format string, args ...Source) (*Expression, error) {
	return KindPlain.Construct(format, args...)
}

// MustConstruct is like Construct but panics on error.
// Use only for templates that are fixed at compile time.
func MustConstruct(format string, args ...Source) *Expression {
	return KindPlain.MustConstruct(format, args...)
}

// Construct builds an expression of kind k from a template. Every "{}" in
// format consumes one argument; the counts must match exactly. NonAtomic
// arguments are parenthesized and empty text segments are dropped.
func (k Kind) Construct(format string, args ...Source) (*Expression, error) {
	parts := strings.Split(format, "{}")
	if len(parts)-1 != len(args) {
		return nil, &ConstructionError{
			Code: ErrCodeTemplateArgs,
			Message: fmt.Sprintf("template %q has %d slots but %d arguments were given",
				format, len(parts)-1, len(args)),
		}
	}

	items := make([]Item, 0, len(parts)+len(args))
	for i, part := range parts {
		if part != "" {
			items = append(items, RawToken{Raw: part})
		}
		if i == len(args) {
			break
		}
		if args[i] == nil {
			return nil, &ConstructionError{
				Code:    ErrCodeNilArgument,
				Message: fmt.Sprintf("argument %d to template %q is nil", i, format),
			}
		}
		arg := args[i].AsExpression()
		if arg == nil {
			return nil, &ConstructionError{
				Code:    ErrCodeNilArgument,
				Message: fmt.Sprintf("argument %d to template %q has no expression", i, format),
			}
		}
		if arg.kind == KindNonAtomic {
			items = append(items, RawToken{Raw: "("}, arg, RawToken{Raw: ")"})
		} else {
			items = append(items, arg)
		}
	}
	return &Expression{kind: k, items: items}, nil
}

// MustConstruct is like Kind.Construct but panics on error.
func (k Kind) MustConstruct(format string, args ...Source) *Expression {
	e, err := k.Construct(format, args...)
	if err != nil {
		panic(err)
	}
	return e
}

// Kind returns the marker kind of e.
func (e *Expression) Kind() Kind { return e.kind }

// Name returns the optional name of a constant expression.
func (e *Expression) Name() string { return e.name }

// Items returns a copy of the direct children.
func (e *Expression) Items() []Item { return slices.Clone(e.items) }

// IsSingleValue reports whether e evaluates to exactly one value.
func (e *Expression) IsSingleValue() bool {
	if e.kind == KindSingleValue || e.kind == KindConstValue {
		return true
	}
	return e.allChildren((*Expression).IsSingleValue)
}

// IsConstant reports whether e is independent of any row.
func (e *Expression) IsConstant() bool {
	switch e.kind {
	case KindConstValue:
		return true
	case KindAggregateFunction, KindWindowFunction:
		return false
	}
	return e.allChildren((*Expression).IsConstant)
}

// IsIndependentSubquery reports whether e is a non-correlated subquery.
func (e *Expression) IsIndependentSubquery() bool {
	if e.kind == KindIndependentSubquery {
		return true
	}
	return e.allChildren((*Expression).IsIndependentSubquery)
}

// HasAggregateFunction reports whether e contains a plain aggregation.
// A window function is not a plain aggregation, even if it wraps one.
func (e *Expression) HasAggregateFunction() bool {
	switch e.kind {
	case KindAggregateFunction:
		return true
	case KindWindowFunction:
		return false
	}
	return e.anyChild((*Expression).HasAggregateFunction)
}

// HasWindowedAggregateFunction reports whether e contains a window function.
func (e *Expression) HasWindowedAggregateFunction() bool {
	if e.kind == KindWindowFunction {
		return true
	}
	return e.anyChild((*Expression).HasWindowedAggregateFunction)
}

// allChildren requires at least one child expression, all satisfying pred.
func (e *Expression) allChildren(pred func(*Expression) bool) bool {
	found := false
	for _, it := range e.items {
		child, ok := it.(*Expression)
		if !ok {
			continue
		}
		if !pred(child) {
			return false
		}
		found = true
	}
	return found
}

func (e *Expression) anyChild(pred func(*Expression) bool) bool {
	for _, it := range e.items {
		if child, ok := it.(*Expression); ok && pred(child) {
			return true
		}
	}
	return false
}

// ResolveColumnReferences returns a copy of e with every column reference
// replaced by a raw token qualified with alias. Resolving twice is the
// same as resolving once.
func (e *Expression) ResolveColumnReferences(alias string) *Expression {
	items := make([]Item, len(e.items))
	for i, it := range e.items {
		switch v := it.(type) {
		case *Expression:
			items[i] = v.ResolveColumnReferences(alias)
		case ColumnReferenceToken:
			items[i] = v.Resolve(alias)
		default:
			items[i] = it
		}
	}
	return &Expression{kind: e.kind, name: e.name, items: items}
}

// ToSQL resolves column references against alias and renders e as a
// template fragment.
func (e *Expression) ToSQL(alias string) (string, error) {
	var b strings.Builder
	for _, tok := range e.ResolveColumnReferences(alias).Tokens() {
		s, err := tok.SQL()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// Tokens returns all leaf tokens of e in order.
func (e *Expression) Tokens() []Token {
	var out []Token
	for _, it := range e.items {
		switch v := it.(type) {
		case *Expression:
			out = append(out, v.Tokens()...)
		case Token:
			out = append(out, v)
		}
	}
	return out
}

// References returns every graph node embedded in e, keyed by reference
// name.
func (e *Expression) References() map[string]*sqlmodel.Node {
	refs := map[string]*sqlmodel.Node{}
	for _, tok := range e.Tokens() {
		if mr, ok := tok.(ModelReferenceToken); ok {
			refs[mr.ReferenceName()] = mr.Model
		}
	}
	return refs
}

// Placeholders returns the placeholder tokens of e.
func (e *Expression) Placeholders() []PlaceholderToken {
	var out []PlaceholderToken
	for _, tok := range e.Tokens() {
		if p, ok := tok.(PlaceholderToken); ok {
			out = append(out, p)
		}
	}
	return out
}

// Variables returns the current values of all variable tokens by name.
func (e *Expression) Variables() map[string]string {
	vars := map[string]string{}
	for _, tok := range e.Tokens() {
		if v, ok := tok.(VariableStringValueToken); ok {
			vars[v.ReferenceName] = v.Value
		}
	}
	return vars
}

// SetVariables returns a copy of e with variable tokens rebound to values.
// Variables absent from values keep their current value.
func (e *Expression) SetVariables(values map[string]string) *Expression {
	items := make([]Item, len(e.items))
	for i, it := range e.items {
		switch v := it.(type) {
		case *Expression:
			items[i] = v.SetVariables(values)
		case VariableStringValueToken:
			if nv, ok := values[v.ReferenceName]; ok {
				v.Value = nv
			}
			items[i] = v
		default:
			items[i] = it
		}
	}
	return &Expression{kind: e.kind, name: e.name, items: items}
}

// Equal reports structural equality of the child sequences.
func (e *Expression) Equal(other *Expression) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.items) != len(other.items) {
		return false
	}
	for i, it := range e.items {
		switch a := it.(type) {
		case *Expression:
			b, ok := other.items[i].(*Expression)
			if !ok || !a.Equal(b) {
				return false
			}
		case Token:
			b, ok := other.items[i].(Token)
			if !ok || !tokenEqual(a, b) {
				return false
			}
		}
	}
	return true
}

// Key returns a string that is equal for two expressions exactly when Equal
// holds, for use as a map key.
func (e *Expression) Key() string {
	var b strings.Builder
	e.writeKey(&b)
	return b.String()
}

func (e *Expression) writeKey(b *strings.Builder) {
	b.WriteByte('[')
	for _, it := range e.items {
		switch v := it.(type) {
		case *Expression:
			v.writeKey(b)
		case RawToken:
			b.WriteString("raw" + strconv.Quote(v.Raw))
		case PlaceholderToken:
			b.WriteString("ph" + strconv.Quote(v.DType) + strconv.Quote(v.Name))
		case ColumnReferenceToken:
			b.WriteString("col" + strconv.Quote(v.ColumnName))
		case ModelReferenceToken:
			b.WriteString("model" + strconv.Quote(v.Model.Hash()))
		case StringValueToken:
			b.WriteString("str" + strconv.Quote(v.Value))
		case VariableStringValueToken:
			b.WriteString("var" + strconv.Quote(v.Value) + strconv.Quote(v.ReferenceName))
		}
		b.WriteByte(',')
	}
	b.WriteByte(']')
}

func (e *Expression) String() string {
	return fmt.Sprintf("%s(%s)", e.kind, e.Key())
}
