// Package pipeline loads declarative pipeline definitions and turns them
// into checkpoint registries.
//
// A pipeline names one source relation and an ordered list of checkpoints.
// Each checkpoint reads from the source or from an earlier checkpoint and
// may filter rows, group and aggregate, filter groups and sort, before it
// is registered with its materialization. Definitions are YAML or CUE
// files; CUE files are checked against the schema in schema.cue.
package pipeline
