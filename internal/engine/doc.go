// Package engine wraps the database connection that checkpoint statements
// run against.
//
// An Engine pairs a *sql.DB with the URL it was opened from. The URL is the
// engine's identity: checkpoint registries record which engine URLs a
// checkpoint has been written to.
//
// Supported URL schemes:
//   - sqlite:, sqlite3: (mattn/go-sqlite3), e.g. "sqlite::memory:" or
//     "sqlite:///var/lib/lazyq/data.db"
//   - postgres:, postgresql: (pgx through database/sql)
package engine
