// Package errs defines the sentinel errors returned by fastxlsx.
//
// Every error produced by the library wraps exactly one of these sentinels, so
// callers can classify failures with errors.Is:
//
//	if errors.Is(err, errs.ErrDepthExceeded) {
//	    // likely a circular reference; raise MaxDepth or fix the data
//	}
package errs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnsupportedType is returned when no strategy in the resolution chain
	// can serialize a type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDepthExceeded is returned when the nesting guard trips, which usually
	// means the value graph contains a cycle.
	ErrDepthExceeded = errors.New("max depth exceeded")

	// ErrInvalidConfiguration is returned for invalid options and for custom
	// serializers whose element type does not match their target.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIOFailure is returned when writing the staging parts or the final
	// archive fails.
	ErrIOFailure = errors.New("io failure")

	// ErrOutOfRange is returned when committing more bytes than were reserved
	// in an output buffer.
	ErrOutOfRange = errors.New("commit out of range")
)

// TypeError reports a failure tied to a specific Go type.
type TypeError struct {
	Type reflect.Type
	Err  error
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("fastxlsx: type %v: %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error.
func (e *TypeError) Unwrap() error {
	return e.Err
}

// NewTypeError wraps err with the type it relates to.
func NewTypeError(t reflect.Type, err error) *TypeError {
	return &TypeError{Type: t, Err: err}
}

// Unsupported returns an ErrUnsupportedType error for t with a reason.
func Unsupported(t reflect.Type, reason string) error {
	return NewTypeError(t, fmt.Errorf("%w: %s", ErrUnsupportedType, reason))
}

// IO wraps an I/O error with the operation that failed.
func IO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIOFailure, op, err)
}
