package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// CreatedObject records a table or view created by Execute.
type CreatedObject struct {
	Name            string                   `json:"name"`
	Materialization sqlmodel.Materialization `json:"materialization"`
}

// Result is the outcome of a successful Execute.
type Result struct {
	// Created lists the tables and views in creation order.
	Created []CreatedObject `json:"created"`

	// Queries holds the rows of every query checkpoint by name.
	Queries map[string]*engine.QueryResult `json:"queries"`

	queryOrder []string
}

// QueryNames returns the names in Queries in execution order.
func (r *Result) QueryNames() []string {
	return r.queryOrder
}

// Execute runs every checkpoint statement against eng in one transaction.
// With overwrite, existing tables and views of the registry are dropped
// first.
//
// If any statement fails the transaction is rolled back and an
// EXECUTION_FAILED error wrapping the driver error is returned. Engine
// sets are only updated once the transaction has committed.
func (r *Registry) Execute(ctx context.Context, eng *engine.Engine, overwrite bool) (*Result, error) {
	if eng == nil {
		return nil, newError(ErrCodeInvalidArgument, "", "engine must not be nil")
	}
	stmts, err := r.ToSQL()
	if err != nil {
		return nil, err
	}

	fail := func(name, msg string, err error) (*Result, error) {
		slog.Error("checkpoint transaction rolled back",
			"checkpoint", name,
			"engine", eng.URL(),
			"error", err)
		return nil, &Error{
			Code:       ErrCodeExecutionFailed,
			Checkpoint: name,
			Overwrite:  overwrite,
			Message:    msg,
			Err:        err,
		}
	}

	tx, err := eng.BeginTx(ctx)
	if err != nil {
		return fail("", "begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("rollback failed", "engine", eng.URL(), "error", rbErr)
		}
	}()

	if overwrite {
		drops, err := r.DropStatements()
		if err != nil {
			return nil, err
		}
		if len(drops) > 0 {
			sqls := make([]string, len(drops))
			for i, st := range drops {
				sqls[i] = st.SQL
			}
			slog.Debug("dropping existing objects", "engine", eng.URL(), "objects", drops.Names())
			if _, err := tx.ExecContext(ctx, strings.Join(sqls, "; ")); err != nil {
				return fail("", "drop existing objects", err)
			}
		}
	}

	result := &Result{Created: []CreatedObject{}, Queries: map[string]*engine.QueryResult{}}
	for _, st := range stmts {
		slog.Debug("executing checkpoint",
			"checkpoint", st.Name,
			"materialization", st.Materialization,
			"engine", eng.URL())

		if st.Materialization == sqlmodel.MaterializationQuery {
			rows, err := tx.QueryContext(ctx, st.SQL)
			if err != nil {
				return fail(st.Name, "run query", err)
			}
			qr, err := engine.CollectRows(rows)
			if err != nil {
				return fail(st.Name, "read query rows", err)
			}
			result.Queries[st.Name] = qr
			result.queryOrder = append(result.queryOrder, st.Name)
			continue
		}

		if _, err := tx.ExecContext(ctx, st.SQL); err != nil {
			return fail(st.Name, "create "+string(st.Materialization), err)
		}
		result.Created = append(result.Created, CreatedObject{Name: st.Name, Materialization: st.Materialization})
	}

	if err := tx.Commit(); err != nil {
		return fail("", "commit", err)
	}

	url := eng.URL()
	for _, st := range stmts {
		if e, ok := r.entries[st.Name]; ok {
			e.engines[url] = struct{}{}
		}
	}
	slog.Info("checkpoints executed",
		"engine", url,
		"statements", len(stmts),
		"overwrite", overwrite)
	return result, nil
}
