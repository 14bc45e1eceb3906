package sqlmodel

import (
	"fmt"
	"strings"
)

// Lookup follows a path of reference keys starting at n.
// An empty path returns n itself.
func (n *Node) Lookup(path ...string) (*Node, error) {
	cur := n
	for i, key := range path {
		next, ok := cur.refs[key]
		if !ok {
			return nil, fmt.Errorf("no reference %q at path %s", key, strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

// SetMaterialization returns a new graph in which the node at path, and
// every other occurrence of that node, has materialization m.
func (n *Node) SetMaterialization(path []string, m Materialization) (*Node, error) {
	return n.replaceAt(path, func(target *Node) (*Node, error) {
		return target.with(m, target.materializationName)
	})
}

// SetMaterializationName returns a new graph in which the node at path, and
// every other occurrence of that node, is named name when materialized.
func (n *Node) SetMaterializationName(path []string, name string) (*Node, error) {
	return n.replaceAt(path, func(target *Node) (*Node, error) {
		return target.with(target.materialization, name)
	})
}

func (n *Node) replaceAt(path []string, replace func(*Node) (*Node, error)) (*Node, error) {
	target, err := n.Lookup(path...)
	if err != nil {
		return nil, err
	}
	replacement, err := replace(target)
	if err != nil {
		return nil, err
	}
	if replacement.hash == target.hash {
		return n, nil
	}
	return n.replaceAll(target.hash, replacement, map[string]*Node{})
}

// replaceAll rebuilds every node on a path from n to an occurrence of the
// node with hash old. Untouched subgraphs are shared with the input.
func (n *Node) replaceAll(old string, replacement *Node, memo map[string]*Node) (*Node, error) {
	if n.hash == old {
		return replacement, nil
	}
	if done, ok := memo[n.hash]; ok {
		return done, nil
	}

	changed := false
	refs := make(map[string]*Node, len(n.refs))
	for k, ref := range n.refs {
		updated, err := ref.replaceAll(old, replacement, memo)
		if err != nil {
			return nil, err
		}
		if updated != ref {
			changed = true
		}
		refs[k] = updated
	}

	out := n
	if changed {
		var err error
		out, err = build(n.name, n.template, refs, n.values, n.materialization, n.materializationName)
		if err != nil {
			return nil, err
		}
	}
	memo[n.hash] = out
	return out, nil
}
