package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL dialect family of an engine.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// Engine is a database handle identified by its URL.
type Engine struct {
	url     string
	dialect Dialect
	db      *sql.DB
}

// ParseURL infers the dialect of a database URL and the DSN to hand to the
// driver.
func ParseURL(dbURL string) (Dialect, string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DialectPostgres, dbURL, nil
	case "sqlite", "sqlite3":
		dsn := u.Opaque
		if dsn == "" {
			dsn = u.Path
		}
		if dsn == "" {
			return "", "", fmt.Errorf("%w: missing sqlite path in %q", ErrInvalidURL, dbURL)
		}
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
		return DialectSQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnknownDialect, u.Scheme)
	}
}

// Open connects to the database at dbURL.
//
// SQLite connections are limited to a single connection, which also keeps
// in-memory databases alive for the lifetime of the engine, and get a busy
// timeout and foreign key enforcement.
func Open(ctx context.Context, dbURL string) (*Engine, error) {
	dialect, dsn, err := ParseURL(dbURL)
	if err != nil {
		return nil, err
	}

	driver := "pgx"
	if dialect == DialectSQLite {
		driver = "sqlite3"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Engine{url: dbURL, dialect: dialect, db: db}, nil
}

// New wraps an existing connection. The dialect is inferred from dbURL and
// left empty if the scheme is unknown.
func New(db *sql.DB, dbURL string) *Engine {
	dialect, _, _ := ParseURL(dbURL)
	return &Engine{url: dbURL, dialect: dialect, db: db}
}

// URL returns the identity of the engine.
func (e *Engine) URL() string { return e.url }

// Dialect returns the dialect family.
func (e *Engine) Dialect() Dialect { return e.dialect }

// DB returns the underlying connection pool.
func (e *Engine) DB() *sql.DB { return e.db }

// BeginTx starts a transaction.
func (e *Engine) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return e.db.BeginTx(ctx, nil)
}

// Close closes the connection pool.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine(%s)", e.url)
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
