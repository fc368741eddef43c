package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so callers can pick a handling path
// without string-matching messages.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindConflict        Kind = "conflict"
	KindPersistence     Kind = "persistence"
)

// Error is a classified engine error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a validation error.
func Validation(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFound builds a not-found error.
func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// Unauthenticated builds an unauthenticated error.
func Unauthenticated(format string, args ...any) *Error {
	return Newf(KindUnauthenticated, format, args...)
}

// Forbidden builds an insufficient-role error.
func Forbidden(format string, args ...any) *Error {
	return Newf(KindForbidden, format, args...)
}

// Conflict builds a duplicate-submission error.
func Conflict(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// Persistence wraps a store failure. This is the only kind the engine
// treats as transient and retryable.
func Persistence(message string, err error) *Error {
	return Wrap(KindPersistence, message, err)
}

// KindOf extracts the kind from an error chain, empty when unclassified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsUnauthenticated reports whether err is an unauthenticated error.
func IsUnauthenticated(err error) bool { return IsKind(err, KindUnauthenticated) }

// IsForbidden reports whether err is an insufficient-role error.
func IsForbidden(err error) bool { return IsKind(err, KindForbidden) }

// IsConflict reports whether err is a duplicate-submission error.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsPersistence reports whether err is a store failure.
func IsPersistence(err error) bool { return IsKind(err, KindPersistence) }
