// Package apierr implements the rating pipeline's error taxonomy: every
// error that crosses a service boundary is classified into one of a fixed
// set of kinds, each with a defined HTTP status and retry policy.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the purposes of HTTP status mapping and
// retry policy (§7 of the design).
type Kind string

const (
	// KindValidation covers missing fields, out-of-range values, malformed JSON.
	KindValidation Kind = "validation"
	// KindNotFound covers references to content/users that don't exist.
	KindNotFound Kind = "not_found"
	// KindAuthFailure covers missing or expired credentials.
	KindAuthFailure Kind = "auth_failure"
	// KindConflict covers a uniqueness race lost after an internal retry.
	KindConflict Kind = "conflict"
	// KindTransient covers store/cache/broker timeouts; safe to retry.
	KindTransient Kind = "transient"
)

// Error is a classified application error carrying a stable Kind and a
// client-safe message.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Status returns the HTTP status code for this error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthFailure:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validationf builds a validation error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// AuthFailuref builds an auth-failure error.
func AuthFailuref(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthFailure, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps a lower-level I/O error as a transient, retryable failure.
func Transient(cause error, message string) *Error {
	return &Error{Kind: KindTransient, Message: message, err: cause}
}

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
