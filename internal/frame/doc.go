// Package frame builds typed columns and tabular snapshots on top of the
// expression layer.
//
// A Column wraps one expr.Expression with a dtype, a base node, index
// columns and an optional pending grouping. Every operation returns a new
// Column; nothing is mutated. Binary operations require both operands to be
// evaluated against the same base node. Operands on different bases must be
// merged or materialized into one frame first.
//
// Aggregations take a Partition:
//   - *GroupBy collapses each group to one row. The result is a pending
//     aggregation that must be combined back into a frame with the same
//     grouping before it can be compiled.
//   - *Window keeps every row and wraps the aggregation in an OVER clause.
//
// A nil partition aggregates over the column's pending grouping, or over
// the whole relation.
//
// Frame is the snapshot that gets compiled: Model turns it into a
// sqlmodel.Node selecting from the frame's base, and Materialize returns a
// fresh frame that reads from that node.
package frame
