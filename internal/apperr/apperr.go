// Package apperr defines the error taxonomy shared by the repository
// backends, the sync controller and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure class of an error.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthentication     Kind = "authentication"
	KindNotFound           Kind = "not_found"
	KindWriteConflict      Kind = "write_conflict"
	KindSchemaMismatch     Kind = "schema_mismatch"
	KindAuthRejected       Kind = "auth_rejected"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindBackend            Kind = "backend"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Backend errors.
var (
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "not_found", Message: "record not found"}
	ErrWriteConflict      = &Error{Kind: KindWriteConflict, Code: "write_conflict", Message: "write conflicts with an existing record"}
	ErrSchemaMismatch     = &Error{Kind: KindSchemaMismatch, Code: "schema_mismatch", Message: "backend schema is missing or out of date"}
	ErrAuthRejected       = &Error{Kind: KindAuthRejected, Code: "auth_rejected", Message: "backend rejected the configured credentials"}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable, Code: "network_unavailable", Message: "backend is unreachable"}
	ErrBackendWrite       = &Error{Kind: KindBackend, Code: "backend_error", Message: "backend operation failed"}
)

// Authentication errors.
var (
	ErrInvalidCredentials   = &Error{Kind: KindAuthentication, Code: "invalid_credentials", Message: "invalid username or password"}
	ErrWrongCurrentPassword = &Error{Kind: KindAuthentication, Code: "wrong_current_password", Message: "current password is incorrect"}
)

// Validation errors.
var (
	ErrRequiredField        = &Error{Kind: KindValidation, Code: "required_field", Message: "required field missing"}
	ErrInvalidField         = &Error{Kind: KindValidation, Code: "invalid_field", Message: "field value is invalid"}
	ErrPasswordTooShort     = &Error{Kind: KindValidation, Code: "password_too_short", Message: "password must be at least 5 characters"}
	ErrConfirmationMismatch = &Error{Kind: KindValidation, Code: "confirmation_mismatch", Message: "password confirmation does not match"}
)

// Validation returns a validation error carrying the code of base and a
// field-specific message.
func Validation(base *Error, message string) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: message}
}

// Backend wraps cause as a backend error of the given sentinel's class.
func Backend(base *Error, message string, cause error) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindBackend
// for unclassified errors. It returns "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// Retryable reports whether err is worth retrying. Only network failures are;
// schema and credential problems need an operator.
func Retryable(err error) bool {
	return KindOf(err) == KindNetworkUnavailable
}

// Message returns the user-facing message and code for err.
func Message(err error) (message, code string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, e.Code
	}
	return ErrBackendWrite.Message, ErrBackendWrite.Code
}
