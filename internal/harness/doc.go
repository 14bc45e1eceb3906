// Package harness runs pipeline scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	pipeline: ../pipelines/rollup.yaml
//	setup:
//	  - create table events (...)
//	  - insert into events values (...)
//	overwrite: false
//	expect_error: EXECUTION_FAILED
//	assertions:
//	  - type: query_rows
//	    checkpoint: big_events
//	    rows: [[2, u1, 20]]
//	  - type: final_state
//	    query: select * from "user_totals"
//	    rows: [[u1, 140]]
//
// The pipeline path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - query_rows: the rows returned by a query checkpoint, in order
//   - row_count: the number of rows returned by a query checkpoint
//   - created: the names of the tables and views created, in order
//   - final_state: the rows of an arbitrary query run after execution
//
// # Isolation
//
// Every scenario runs against a fresh in-memory SQLite database, so
// scenarios can run in parallel and golden snapshots are reproducible as
// long as query checkpoints sort their rows.
package harness
