package expr

import (
	"fmt"

	"github.com/roach88/lazyq/internal/sqlmodel"
)

// PlaceholderPrefix prefixes the node value key of every placeholder.
const PlaceholderPrefix = "__placeholder_"

// Item is a child of an Expression: either a Token or a nested *Expression.
//
// This is a sealed interface - only types in this package implement it.
type Item interface {
	exprItem() // Marker method - seals interface to this package
}

// Token is a leaf of an expression tree.
//
// This is a sealed interface - only types in this package implement it.
// SQL renders the token as a template fragment.
type Token interface {
	Item
	SQL() (string, error)
	tokenNode() // Marker method - seals interface to this package
}

// RawToken is literal SQL text.
type RawToken struct {
	Raw string
}

func (RawToken) exprItem()  {}
func (RawToken) tokenNode() {}

// SQL escapes braces so the text survives template rendering unchanged.
func (t RawToken) SQL() (string, error) {
	return sqlmodel.EscapeTemplate(t.Raw), nil
}

// PlaceholderToken is a typed hole. It renders as a marker that a node
// value named PlaceholderKey(Name) must fill.
type PlaceholderToken struct {
	DType string
	Name  string
}

func (PlaceholderToken) exprItem()  {}
func (PlaceholderToken) tokenNode() {}

func (t PlaceholderToken) SQL() (string, error) {
	return "{" + PlaceholderKey(t.Name) + "}", nil
}

// PlaceholderKey is the node value key for a placeholder called name.
func PlaceholderKey(name string) string {
	return PlaceholderPrefix + name
}

// ColumnReferenceToken names a column of the relation the expression is
// evaluated against. It must be resolved before rendering.
type ColumnReferenceToken struct {
	ColumnName string
}

func (ColumnReferenceToken) exprItem()  {}
func (ColumnReferenceToken) tokenNode() {}

func (t ColumnReferenceToken) SQL() (string, error) {
	return "", &ConstructionError{
		Code:    ErrCodeUnresolvedColumn,
		Message: fmt.Sprintf("column reference %q must be resolved before rendering", t.ColumnName),
	}
}

// Resolve qualifies the column with alias. An empty alias produces the bare
// quoted column name.
func (t ColumnReferenceToken) Resolve(alias string) RawToken {
	if alias == "" {
		return RawToken{Raw: sqlmodel.QuoteIdentifier(t.ColumnName)}
	}
	return RawToken{Raw: sqlmodel.QuoteIdentifier(alias) + "." + sqlmodel.QuoteIdentifier(t.ColumnName)}
}

// ModelReferenceToken embeds another graph node, typically as a subquery.
type ModelReferenceToken struct {
	Model *sqlmodel.Node
}

func (ModelReferenceToken) exprItem()  {}
func (ModelReferenceToken) tokenNode() {}

// ReferenceName is the node reference key this token renders as.
func (t ModelReferenceToken) ReferenceName() string {
	return "reference" + t.Model.Hash()
}

func (t ModelReferenceToken) SQL() (string, error) {
	return "{" + t.ReferenceName() + "}", nil
}

// StringValueToken is a string literal.
type StringValueToken struct {
	Value string
}

func (StringValueToken) exprItem()  {}
func (StringValueToken) tokenNode() {}

func (t StringValueToken) SQL() (string, error) {
	return sqlmodel.EscapeTemplate(sqlmodel.QuoteString(t.Value)), nil
}

// VariableStringValueToken is a string literal whose value is bound to a
// variable and can be replaced through Expression.SetVariables.
type VariableStringValueToken struct {
	Value         string
	ReferenceName string
}

func (VariableStringValueToken) exprItem()  {}
func (VariableStringValueToken) tokenNode() {}

func (t VariableStringValueToken) SQL() (string, error) {
	return sqlmodel.EscapeTemplate(sqlmodel.QuoteString(t.Value)), nil
}

func tokenEqual(a, b Token) bool {
	switch x := a.(type) {
	case ModelReferenceToken:
		y, ok := b.(ModelReferenceToken)
		return ok && x.Model.Equal(y.Model)
	default:
		return a == b
	}
}
