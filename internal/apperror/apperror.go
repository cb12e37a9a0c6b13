// Package apperror defines the error kinds surfaced by the decision service.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can react without string matching
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNoAccess       Kind = "no_access"
	KindNotFound       Kind = "not_found"
	KindLocked         Kind = "locked"
	KindOracleFailure  Kind = "oracle_failure"
	KindStorageFailure Kind = "storage_failure"
)

// Error is a classified, user-presentable error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation reports malformed or out-of-range input
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

// NoAccess reports an authorization failure
func NoAccess(format string, args ...any) *Error {
	return newError(KindNoAccess, nil, format, args...)
}

// NotFound reports a missing decision, option, criterion, membership or comment
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

// Locked reports a write against a locked decision
func Locked(format string, args ...any) *Error {
	return newError(KindLocked, nil, format, args...)
}

// OracleFailure wraps a failed AI scoring call
func OracleFailure(err error, format string, args ...any) *Error {
	return newError(KindOracleFailure, err, format, args...)
}

// StorageFailure wraps a database fault. The message shown to users stays generic.
func StorageFailure(err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: "internal storage error", Err: err}
}

// KindOf returns the kind of err. Unclassified errors are storage failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageFailure
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind to its HTTP status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNoAccess:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindLocked:
		return http.StatusLocked
	case KindOracleFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
