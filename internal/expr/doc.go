// Package expr provides the token and expression layer that typed columns
// compile through.
//
// ARCHITECTURE:
//
// An Expression is an immutable tree whose leaves are tokens:
//
//	[Column operations] → [Expression tree] → [SQL template fragment] → [sqlmodel.Node]
//
// Rendering an expression yields a template fragment, not final SQL.
// Literal braces are escaped as {{ and }}, and references to other graph
// nodes become {reference<hash>} markers. The fragment is embedded into a
// sqlmodel.Node template, and the node graph turns markers into CTE or
// object names when statements are emitted.
//
// SEALED INTERFACES:
//
// Token and Item are sealed with marker methods. Only the token types in
// this package exist, so type switches over them are exhaustive:
//   - RawToken: SQL text, emitted with braces escaped
//   - PlaceholderToken: a named typed hole filled by node values
//   - ColumnReferenceToken: a column name, resolved against a relation alias
//   - ModelReferenceToken: a reference to another graph node
//   - StringValueToken: a string literal, quoted on output
//   - VariableStringValueToken: a string literal bound to a variable name
//
// MARKER KINDS:
//
// Every expression has a Kind. The kind tags the expression's role and
// drives the property flags:
//   - KindNonAtomic: wrapped in parentheses when used as a Construct argument
//   - KindSingleValue, KindConstValue: evaluate to exactly one value
//   - KindIndependentSubquery: a subquery that does not correlate
//   - KindAggregateFunction, KindWindowFunction: aggregations
//
// Flags combine bottom-up. IsSingleValue, IsConstant and
// IsIndependentSubquery need at least one child expression, and every child
// expression must have the flag. HasAggregateFunction and
// HasWindowedAggregateFunction hold as soon as any child has them.
//
// Equality is structural over the child sequence, so expressions can be
// compared and used as map keys through Key.
package expr
