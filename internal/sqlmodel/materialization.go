package sqlmodel

import "fmt"

// Materialization controls how a node is emitted by ToSQLMaterialized.
type Materialization string

const (
	// MaterializationCTE inlines the node as a common table expression of
	// whatever statement depends on it. This is the default.
	MaterializationCTE Materialization = "cte"

	// MaterializationQuery emits the node as a plain select statement.
	MaterializationQuery Materialization = "query"

	// MaterializationTable emits "create table ... as" for the node.
	MaterializationTable Materialization = "table"

	// MaterializationView emits "create view ... as" for the node.
	MaterializationView Materialization = "view"

	// MaterializationVirtual marks a node that only groups other nodes and
	// never produces SQL of its own.
	MaterializationVirtual Materialization = "virtual_node"
)

var allMaterializations = []Materialization{
	MaterializationCTE,
	MaterializationQuery,
	MaterializationTable,
	MaterializationView,
	MaterializationVirtual,
}

// ParseMaterialization converts a configuration string to a Materialization.
func ParseMaterialization(s string) (Materialization, error) {
	for _, m := range allMaterializations {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown materialization %q: must be one of %v", s, allMaterializations)
}

// IsStatement reports whether nodes with this materialization produce a
// statement of their own.
func (m Materialization) IsStatement() bool {
	return m == MaterializationQuery || m == MaterializationTable || m == MaterializationView
}

// IsPersisted reports whether emitting the node creates a database object
// that dependent statements can reference by name.
func (m Materialization) IsPersisted() bool {
	return m == MaterializationTable || m == MaterializationView
}
