package expr

import (
	"errors"
	"fmt"
)

// ConstructionError reports a programming error while building or rendering
// an expression.
type ConstructionError struct {
	Code    ConstructionErrorCode
	Message string
}

// ConstructionErrorCode categorizes construction errors.
type ConstructionErrorCode string

const (
	// ErrCodeTemplateArgs indicates the number of {} slots in a template
	// differs from the number of arguments.
	ErrCodeTemplateArgs ConstructionErrorCode = "TEMPLATE_ARGS"

	// ErrCodeNilArgument indicates a nil argument was passed to Construct.
	ErrCodeNilArgument ConstructionErrorCode = "NIL_ARGUMENT"

	// ErrCodeUnresolvedColumn indicates a column reference was rendered
	// before it was resolved against a relation.
	ErrCodeUnresolvedColumn ConstructionErrorCode = "UNRESOLVED_COLUMN"
)

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConstructionError reports whether err is a ConstructionError with code.
func IsConstructionError(err error, code ConstructionErrorCode) bool {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
