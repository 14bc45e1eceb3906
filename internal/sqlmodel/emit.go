package sqlmodel

import (
	"fmt"
	"log/slog"
	"strings"
)

// Statement is one emitted SQL statement.
type Statement struct {
	Name            string
	SQL             string
	Materialization Materialization
}

// Statements is an ordered list of statements. Order is significant:
// every statement comes after the statements it depends on.
type Statements []Statement

// Names returns the statement names in order.
func (s Statements) Names() []string {
	names := make([]string, len(s))
	for i, st := range s {
		names[i] = st.Name
	}
	return names
}

// Get returns the SQL of the statement called name.
func (s Statements) Get(name string) (string, bool) {
	for _, st := range s {
		if st.Name == name {
			return st.SQL, true
		}
	}
	return "", false
}

// Reversed returns the statements in reverse order.
func (s Statements) Reversed() Statements {
	out := make(Statements, len(s))
	for i, st := range s {
		out[len(s)-1-i] = st
	}
	return out
}

// Filter returns the statements for which keep returns true, in order.
func (s Statements) Filter(keep func(Statement) bool) Statements {
	var out Statements
	for _, st := range s {
		if keep(st) {
			out = append(out, st)
		}
	}
	return out
}

// ToSQLMaterialized emits a statement for every query, table and view node
// reachable from start, dependencies first. The start node itself is only
// emitted when includeStart is set.
//
// Two different nodes that would produce a statement of the same name are
// an error.
func ToSQLMaterialized(start *Node, includeStart bool) (Statements, error) {
	var out Statements
	byName := map[string]string{}

	for _, n := range topoOrder(start) {
		if n == start && !includeStart {
			continue
		}
		if !n.materialization.IsStatement() {
			continue
		}

		name := n.StatementName()
		if prev, ok := byName[name]; ok && prev != n.hash {
			return nil, fmt.Errorf("two different nodes materialize as %q", name)
		}
		byName[name] = n.hash

		sql, err := n.statementSQL()
		if err != nil {
			return nil, fmt.Errorf("emit %q: %w", name, err)
		}
		slog.Debug("emitted statement", "name", name, "materialization", n.materialization)
		out = append(out, Statement{Name: name, SQL: sql, Materialization: n.materialization})
	}
	return out, nil
}

// SQL compiles n to a single select statement regardless of its own
// materialization.
func (n *Node) SQL() (string, error) {
	return n.querySQL()
}

// topoOrder lists the graph's distinct nodes in post order, visiting
// references in key order.
func topoOrder(start *Node) []*Node {
	var out []*Node
	seen := map[string]bool{}

	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n.hash] {
			return
		}
		seen[n.hash] = true
		for _, k := range n.sortedRefKeys() {
			visit(n.refs[k])
		}
		out = append(out, n)
	}
	visit(start)
	return out
}

func (n *Node) statementSQL() (string, error) {
	body, err := n.querySQL()
	if err != nil {
		return "", err
	}
	switch n.materialization {
	case MaterializationTable:
		return fmt.Sprintf("create table %s as %s", QuoteIdentifier(n.StatementName()), body), nil
	case MaterializationView:
		return fmt.Sprintf("create view %s as %s", QuoteIdentifier(n.StatementName()), body), nil
	default:
		return body, nil
	}
}

type cte struct {
	name string
	sql  string
}

// querySQL renders n with its non-persisted dependencies as CTEs named
// "<name>___<position>".
func (n *Node) querySQL() (string, error) {
	var ctes []cte
	names := map[string]string{}

	var visit func(m *Node) error
	visit = func(m *Node) error {
		for _, k := range m.sortedRefKeys() {
			ref := m.refs[k]
			if _, ok := names[ref.hash]; ok {
				continue
			}
			if ref.materialization.IsPersisted() {
				names[ref.hash] = QuoteIdentifier(ref.StatementName())
				continue
			}
			if err := visit(ref); err != nil {
				return err
			}
			body, err := ref.render(names)
			if err != nil {
				return err
			}
			name := QuoteIdentifier(fmt.Sprintf("%s___%d", ref.name, len(ctes)+1))
			names[ref.hash] = name
			ctes = append(ctes, cte{name: name, sql: body})
		}
		return nil
	}
	if err := visit(n); err != nil {
		return "", err
	}

	body, err := n.render(names)
	if err != nil {
		return "", err
	}
	if len(ctes) == 0 {
		return body, nil
	}

	parts := make([]string, len(ctes))
	for i, c := range ctes {
		parts[i] = fmt.Sprintf("%s as (%s)", c.name, c.sql)
	}
	return "with " + strings.Join(parts, ", ") + " " + body, nil
}

// render substitutes markers: references by their SQL name from names,
// values verbatim.
func (n *Node) render(names map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range n.segments {
		if !s.isMarker() {
			b.WriteString(s.text)
			continue
		}
		if ref, ok := n.refs[s.key]; ok {
			name, ok := names[ref.hash]
			if !ok {
				return "", &TemplateError{Node: n.name, Key: s.key, Message: "reference was not emitted"}
			}
			b.WriteString(name)
			continue
		}
		b.WriteString(n.values[s.key])
	}
	return b.String(), nil
}
