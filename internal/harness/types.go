package harness

import (
	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/sqlmodel"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if the execution outcome matched ExpectError and every
	// assertion held.
	Pass bool `json:"pass"`

	// Statements are the statements the pipeline compiled to.
	Statements sqlmodel.Statements `json:"statements"`

	// Execution is nil if the execution failed.
	Execution *checkpoint.Result `json:"execution,omitempty"`

	// ExecutionError is the error returned by a failed execution.
	ExecutionError error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
