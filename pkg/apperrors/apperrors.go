// Package apperrors defines the error taxonomy shared by every component of
// the benchmark core. Components fail with the most specific kind; HTTP
// boundaries translate kinds to status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure from spec §7.
type Kind string

const (
	KindInputInvalid         Kind = "input_invalid"
	KindStateConflict        Kind = "state_conflict"
	KindProviderAuth         Kind = "provider_auth"
	KindProviderRateLimited  Kind = "provider_rate_limited"
	KindProviderTimeout      Kind = "provider_timeout"
	KindProviderUnavailable  Kind = "provider_unavailable"
	KindProviderBadRequest   Kind = "provider_bad_request"
	KindIndexSchemaConflict  Kind = "index_schema_conflict"
	KindExtractEmpty         Kind = "extract_empty"
	KindInternal             Kind = "internal"
)

// Error is a typed, wrapped application error carrying a Kind for boundary
// translation plus an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err
// isn't a tagged *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the provider failure kind is subject to the
// backoff retry policy of spec §4.A (rate limited, timeout, unavailable).
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindProviderRateLimited, KindProviderTimeout, KindProviderUnavailable:
		return true
	default:
		return false
	}
}
