package frame

import "strings"

// Equal reports structural equality: dtype, engine handle, base node, name,
// expression, index, sort direction and pending grouping.
func (c *Column) Equal(other *Column) bool {
	return c.equal(other, false)
}

// equal compares c and o. skipGroupBy is set when the comparison started
// from a grouping, whose index columns are already being compared.
func (c *Column) equal(o *Column, skipGroupBy bool) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if c.kind.DType() != o.kind.DType() ||
		c.engine != o.engine ||
		c.name != o.name ||
		!c.base.Equal(o.base) ||
		!c.expression.Equal(o.expression) {
		return false
	}
	if !sortEqual(c.sortAscending, o.sortAscending) {
		return false
	}
	if !columnsEqual(c.index, o.index, skipGroupBy) {
		return false
	}
	if skipGroupBy {
		return true
	}
	return groupByEqual(c.groupBy, o.groupBy)
}

func sortEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// columnsEqual compares two ordered column lists.
func columnsEqual(a, b []*Column, skipGroupBy bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i], skipGroupBy) {
			return false
		}
	}
	return true
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
