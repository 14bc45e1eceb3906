package frame

import (
	"errors"
	"fmt"
)

// Error reports an invalid column or frame operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed, e.g. "add" or "count".
	Op string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes frame errors.
type ErrorCode string

const (
	// ErrCodeBaseMismatch indicates operands built on different base nodes.
	ErrCodeBaseMismatch ErrorCode = "BASE_MISMATCH"

	// ErrCodeTypeMismatch indicates an operator or aggregation the operand
	// dtypes do not support.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnsupportedOperation indicates an operation that is never
	// supported, or not with the given options.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodeConfigConflict indicates incompatible grouping or window
	// settings.
	ErrCodeConfigConflict ErrorCode = "CONFIG_CONFLICT"

	// ErrCodeNotAWindow indicates a window function applied to a plain
	// grouping.
	ErrCodeNotAWindow ErrorCode = "NOT_A_WINDOW"

	// ErrCodeDuplicateName indicates two results with the same name.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeUnknownFunction indicates an aggregation name that is not
	// registered.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeUnknownColumn indicates a column name not present in a frame.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsError reports whether err is a frame Error with code.
func IsError(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

func newError(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func errBaseMismatch(op string) *Error {
	return newError(ErrCodeBaseMismatch, op,
		"operands are built on different base nodes; merge or join the frames into one base first")
}
