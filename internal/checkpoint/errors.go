package checkpoint

import (
	"errors"
	"fmt"
)

// Error reports an invalid registry operation or a failed execution.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Checkpoint is the checkpoint involved, if any.
	Checkpoint string

	// Overwrite is the overwrite flag of the failed execution.
	Overwrite bool

	// Message is a human-readable description.
	Message string

	// Err is the underlying driver error of a failed execution.
	Err error
}

// ErrorCode categorizes checkpoint errors.
type ErrorCode string

const (
	// ErrCodeInvalidName indicates a checkpoint name outside [A-Za-z0-9_].
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"

	// ErrCodeInvalidMaterialization indicates a materialization that cannot
	// be used for a checkpoint.
	ErrCodeInvalidMaterialization ErrorCode = "INVALID_MATERIALIZATION"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeConflict indicates a name already registered with different
	// content.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeNotFound indicates an unknown checkpoint name.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotMaterialized indicates a checkpoint that was never executed
	// against the requested engine.
	ErrCodeNotMaterialized ErrorCode = "NOT_MATERIALIZED"

	// ErrCodeExecutionFailed indicates the engine rejected a statement. The
	// transaction was rolled back.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
)

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Checkpoint != "" {
		msg += fmt.Sprintf(": checkpoint %q", e.Checkpoint)
	}
	msg += ": " + e.Message
	if e.Overwrite {
		msg += " (overwrite)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err is a checkpoint Error with the given code.
func IsError(err error, code ErrorCode) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

func newError(code ErrorCode, name, format string, args ...any) *Error {
	return &Error{Code: code, Checkpoint: name, Message: fmt.Sprintf(format, args...)}
}
