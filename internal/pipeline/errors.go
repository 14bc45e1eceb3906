package pipeline

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for pipeline loading and building.
const (
	ErrCodeNotFound    = "E001" // Pipeline file not found or unreadable
	ErrCodeFormat      = "E002" // Unsupported file extension
	ErrCodeParse       = "E003" // YAML or CUE syntax error
	ErrCodeSchema      = "E004" // CUE schema violation
	ErrCodeInvalid     = "E005" // Structurally invalid pipeline
	ErrCodeBuildFailed = "E006" // Column, dtype or function error while building
)

// LoadError reports a pipeline that could not be loaded or built.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsError reports whether err is a LoadError with the given code.
func IsError(err error, code string) bool {
	var lerr *LoadError
	if errors.As(err, &lerr) {
		return lerr.Code == code
	}
	return false
}

// cueError converts the first CUE error to a LoadError with its position.
func cueError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	lerr := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		lerr.Pos = positions[0]
	}
	return lerr
}
