package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lazyq/internal/engine"
)

// MemoryURL is the engine URL of an in-memory SQLite database.
const MemoryURL = "sqlite::memory:"

// EventsFixture creates and fills the events table used across package
// tests.
//
// User u1 has five events with values 10..50. User u2 has four events, one
// of which has a NULL value, so count(value) for u2 is 3.
var EventsFixture = []string{
	`create table events (event_id integer primary key, user_id text not null, value integer)`,
	`insert into events (event_id, user_id, value) values
		(1, 'u1', 10),
		(2, 'u1', 20),
		(3, 'u1', 30),
		(4, 'u1', 40),
		(5, 'u1', 50),
		(6, 'u2', 5),
		(7, 'u2', NULL),
		(8, 'u2', 7),
		(9, 'u2', 9)`,
}

// OpenSQLite opens an in-memory engine that is closed when the test ends.
func OpenSQLite(t testing.TB) *engine.Engine {
	t.Helper()

	eng, err := engine.Open(context.Background(), MemoryURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		eng.Close()
	})
	return eng
}

// OpenSQLiteWithEvents opens an in-memory engine preloaded with the events
// fixture.
func OpenSQLiteWithEvents(t testing.TB) *engine.Engine {
	t.Helper()

	eng := OpenSQLite(t)
	Exec(t, eng, EventsFixture...)
	return eng
}

// Exec runs statements against eng, failing the test on the first error.
func Exec(t testing.TB, eng *engine.Engine, stmts ...string) {
	t.Helper()

	for _, stmt := range stmts {
		_, err := eng.DB().ExecContext(context.Background(), stmt)
		require.NoError(t, err, "exec %q", stmt)
	}
}

// QueryRows runs query against eng and returns all rows.
func QueryRows(t testing.TB, eng *engine.Engine, query string) [][]any {
	t.Helper()

	rows, err := eng.DB().QueryContext(context.Background(), query)
	require.NoError(t, err, "query %q", query)
	result, err := engine.CollectRows(rows)
	require.NoError(t, err)
	return result.Rows
}
