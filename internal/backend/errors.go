package backend

import (
	"errors"
	"fmt"

	"github.com/hoopwithher/polystore/internal/document"
)

// DuplicateKeyError reports a unique-index violation on insert or update.
//
// The write is rejected whole: the store never converts a constraint
// failure into a partial or fabricated success.
type DuplicateKeyError struct {
	// Collection is the logical collection name.
	Collection string

	// Field is the uniquely-indexed field, when the backend can name it
	// (the document database reports it in its own error text instead).
	Field string

	// Value is the conflicting value, when known.
	Value document.Value
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate key: collection %q already holds this value of %q", e.Collection, e.Field)
	}
	return fmt.Sprintf("duplicate key in collection %q", e.Collection)
}

// IsDuplicateKey returns true if err is a unique-index violation.
// Uses errors.As to handle wrapped errors.
func IsDuplicateKey(err error) bool {
	var de *DuplicateKeyError
	return errors.As(err, &de)
}

// UnavailableError reports that the active backend could not be reached
// or failed mid-operation. It always wraps the transport cause, so a
// failed read is never mistaken for an empty result.
type UnavailableError struct {
	// Backend is the variant that failed.
	Backend Kind

	// Op names the operation that failed ("find", "insert_one", ...).
	Op string

	// Err is the underlying transport or server error.
	Err error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s backend unavailable during %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap exposes the transport cause for errors.Is/As chains.
func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable returns true if err reports an unreachable backend.
// Uses errors.As to handle wrapped errors.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// NewUnavailable wraps a transport failure.
func NewUnavailable(kind Kind, op string, err error) *UnavailableError {
	return &UnavailableError{Backend: kind, Op: op, Err: err}
}

// UnsupportedError reports a predicate or update construct the active
// adapter cannot express, even with its client-side fallback.
type UnsupportedError struct {
	// Backend is the variant that rejected the construct.
	Backend Kind

	// Construct describes what could not be translated.
	Construct string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s backend cannot express %s", e.Backend, e.Construct)
}

// IsUnsupported returns true if err reports an untranslatable construct.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// NewUnsupported reports an untranslatable construct.
func NewUnsupported(kind Kind, construct string) *UnsupportedError {
	return &UnsupportedError{Backend: kind, Construct: construct}
}
