package sqlmodel

import (
	"fmt"
	"maps"
	"slices"
)

// Node is an immutable SQL-model graph node.
type Node struct {
	name                string
	template            string
	segments            []segment
	refs                map[string]*Node
	values              map[string]string
	materialization     Materialization
	materializationName string
	hash                string
}

// Build creates a node with the default CTE materialization.
//
// Every {key} marker in template must name an entry of refs or values.
// Values are substituted verbatim, so they must already be valid SQL.
func Build(name, template string, refs map[string]*Node, values map[string]string) (*Node, error) {
	return build(name, template, refs, values, MaterializationCTE, "")
}

// MustBuild is like Build but panics on error.
// Use only for templates that are fixed at compile time.
func MustBuild(name, template string, refs map[string]*Node, values map[string]string) *Node {
	n, err := Build(name, template, refs, values)
	if err != nil {
		panic(err)
	}
	return n
}

func build(name, template string, refs map[string]*Node, values map[string]string, m Materialization, mname string) (*Node, error) {
	if name == "" {
		return nil, &TemplateError{Message: "node name must not be empty"}
	}
	segs, err := parseTemplate(template)
	if err != nil {
		return nil, &TemplateError{Node: name, Message: err.Error()}
	}

	for k, ref := range refs {
		if ref == nil {
			return nil, &TemplateError{Node: name, Key: k, Message: "nil reference"}
		}
		if _, ok := values[k]; ok {
			return nil, &TemplateError{Node: name, Key: k, Message: "name used as both reference and value"}
		}
	}
	for _, s := range segs {
		if !s.isMarker() {
			continue
		}
		_, isRef := refs[s.key]
		_, isValue := values[s.key]
		if !isRef && !isValue {
			return nil, &TemplateError{Node: name, Key: s.key, Message: "unknown marker"}
		}
	}

	n := &Node{
		name:                name,
		template:            template,
		segments:            segs,
		refs:                maps.Clone(refs),
		values:              maps.Clone(values),
		materialization:     m,
		materializationName: mname,
	}
	if n.refs == nil {
		n.refs = map[string]*Node{}
	}
	if n.values == nil {
		n.values = map[string]string{}
	}
	n.hash, err = n.computeHash()
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Name returns the generic name of the node.
func (n *Node) Name() string { return n.name }

// Template returns the SQL template of the node.
func (n *Node) Template() string { return n.template }

// Hash returns the structural identity of the graph rooted at n.
func (n *Node) Hash() string { return n.hash }

// Materialization returns how the node is emitted.
func (n *Node) Materialization() Materialization { return n.materialization }

// MaterializationName returns the explicit object name, or "" if unset.
func (n *Node) MaterializationName() string { return n.materializationName }

// StatementName is the name used for the statement or database object the
// node produces: the materialization name if set, otherwise the generic
// name.
func (n *Node) StatementName() string {
	if n.materializationName != "" {
		return n.materializationName
	}
	return n.name
}

// References returns a copy of the node's direct references.
func (n *Node) References() map[string]*Node {
	return maps.Clone(n.refs)
}

// Reference returns the direct reference stored under key.
func (n *Node) Reference(key string) (*Node, bool) {
	ref, ok := n.refs[key]
	return ref, ok
}

// Values returns a copy of the node's value substitutions.
func (n *Node) Values() map[string]string {
	return maps.Clone(n.values)
}

// Equal reports structural equality.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.hash == other.hash
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s, %s, %s)", n.name, n.materialization, n.hash[:12])
}

func (n *Node) sortedRefKeys() []string {
	return slices.Sorted(maps.Keys(n.refs))
}

func (n *Node) with(m Materialization, mname string) (*Node, error) {
	return build(n.name, n.template, n.refs, n.values, m, mname)
}
