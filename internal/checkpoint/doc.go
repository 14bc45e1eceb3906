// Package checkpoint keeps a registry of named frames that are emitted
// together as one set of SQL statements.
//
// Every checkpoint is materialized as a query, a table, a view or a
// virtual node. The registry combines all checkpoints under one virtual
// root node so that shared dependencies are emitted once and persisted
// checkpoints are referenced by name from the statements that depend on
// them. Execute runs the statements against an engine in a single
// transaction and records which engines hold each checkpoint.
package checkpoint
