// File: services/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for the presentation layer.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validationError"
	KindNotFound          ErrorKind = "notFound"
	KindCapacityExceeded  ErrorKind = "capacityExceeded"
	KindIllegalTransition ErrorKind = "illegalTransition"
	KindConflict          ErrorKind = "conflict"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInternal          ErrorKind = "internal"
)

// Error is the engine's error type. Validation and not-found errors are
// terminal; Conflict is transient and retryable by the caller.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func NewCapacityError(format string, args ...interface{}) *Error {
	return newError(KindCapacityExceeded, format, args...)
}

func NewIllegalTransitionError(format string, args ...interface{}) *Error {
	return newError(KindIllegalTransition, format, args...)
}

func NewConflictError(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func NewUnauthorizedError(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

func internalError(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// KindOf extracts the engine error kind; unknown errors report KindInternal.
func KindOf(err error) ErrorKind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return KindInternal
}
