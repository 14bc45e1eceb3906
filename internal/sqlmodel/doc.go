// Package sqlmodel implements the immutable SQL-model graph that compiled
// expressions are embedded in.
//
// A Node is a SQL template plus named references to other nodes and named
// value substitutions. Templates use {name} markers for references and
// values; {{ and }} stand for literal braces. Nodes are content addressed:
// Hash covers the generic name, the template, the values, the hashes of all
// references and the materialization settings, so two structurally equal
// graphs always share a hash.
//
// Graph operations never mutate a node. SetMaterialization and
// SetMaterializationName return a new graph in which the node at a
// reference path, and every other occurrence of that same node, is
// replaced.
//
// ToSQLMaterialized walks a graph in dependency order and emits one
// statement per query, table or view node. Dependencies that are not
// persisted are inlined as common table expressions; tables and views are
// referenced by name.
package sqlmodel
