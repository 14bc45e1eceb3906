package dtype

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownTypeError reports a dtype name that is not registered.
type UnknownTypeError struct {
	Name  string
	Known []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown dtype %q: must be one of %s", e.Name, strings.Join(e.Known, ", "))
}

// UnsupportedValueError reports a Go value a kind cannot render, or a cast
// a kind does not accept.
type UnsupportedValueError struct {
	DType   string
	Message string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("dtype %s: %s", e.DType, e.Message)
}

// IsUnknownType reports whether err is an UnknownTypeError.
func IsUnknownType(err error) bool {
	var ue *UnknownTypeError
	return errors.As(err, &ue)
}

// IsUnsupportedValue reports whether err is an UnsupportedValueError.
func IsUnsupportedValue(err error) bool {
	var ue *UnsupportedValueError
	return errors.As(err, &ue)
}
