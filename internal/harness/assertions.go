package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/engine"
)

// AssertionError represents a failed assertion with context.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: expected %v, got %v", e.Type, e.Expected, e.Actual)
}

func evaluate(ctx context.Context, eng *engine.Engine, execution *checkpoint.Result, a Assertion) error {
	switch a.Type {
	case AssertQueryRows:
		qr, err := queryResult(execution, a)
		if err != nil {
			return err
		}
		return assertRows(a.Type, a.Rows, qr.Rows)

	case AssertRowCount:
		qr, err := queryResult(execution, a)
		if err != nil {
			return err
		}
		if len(qr.Rows) != a.Count {
			return &AssertionError{Type: a.Type, Expected: a.Count, Actual: len(qr.Rows)}
		}
		return nil

	case AssertCreated:
		var actual []string
		if execution != nil {
			for _, obj := range execution.Created {
				actual = append(actual, obj.Name)
			}
		}
		if !slices.Equal(a.Objects, actual) {
			return &AssertionError{Type: a.Type, Expected: a.Objects, Actual: actual}
		}
		return nil

	case AssertFinalState:
		rows, err := eng.DB().QueryContext(ctx, a.Query)
		if err != nil {
			return fmt.Errorf("query %q: %w", a.Query, err)
		}
		qr, err := engine.CollectRows(rows)
		if err != nil {
			return fmt.Errorf("query %q: %w", a.Query, err)
		}
		return assertRows(a.Type, a.Rows, qr.Rows)

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func queryResult(execution *checkpoint.Result, a Assertion) (*engine.QueryResult, error) {
	if execution == nil {
		return nil, &AssertionError{Type: a.Type, Message: "execution produced no result"}
	}
	qr, ok := execution.Queries[a.Checkpoint]
	if !ok {
		return nil, &AssertionError{
			Type:    a.Type,
			Message: fmt.Sprintf("no query result for checkpoint %q, have %v", a.Checkpoint, execution.QueryNames()),
		}
	}
	return qr, nil
}

// assertRows compares rows in order after normalizing numeric types, so
// YAML integers match driver int64 values.
func assertRows(typ string, expected, actual [][]any) error {
	if len(expected) != len(actual) {
		return &AssertionError{
			Type:     typ,
			Expected: expected,
			Actual:   actual,
			Message:  fmt.Sprintf("%s: expected %d rows, got %d: %v", typ, len(expected), len(actual), actual),
		}
	}
	for i := range expected {
		want, got := normalizeRow(expected[i]), normalizeRow(actual[i])
		if !reflect.DeepEqual(want, got) {
			return &AssertionError{
				Type:     typ,
				Expected: want,
				Actual:   got,
				Message:  fmt.Sprintf("%s: row %d: expected %v, got %v", typ, i, want, got),
			}
		}
	}
	return nil
}

func normalizeRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	case []byte:
		return string(n)
	default:
		return v
	}
}
