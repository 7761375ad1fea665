// Package errors defines the sentinel and structured errors shared across the
// core and the HTTP layer. Handlers map these to status codes in one place,
// so services and repositories never reason about HTTP.
package errors

import (
	"errors"
	"fmt"
)

// Auth sentinels.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUserExists         = errors.New("user already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// User sentinels.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email format is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrFullNameRequired = errors.New("full name is required")
	ErrInvalidRole      = errors.New("invalid role")
)

// Ticket sentinels.
var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrInvalidStatus  = errors.New("invalid ticket status")
)

// FieldRequiredError reports the first required ticket field that was empty
// after trimming. Handlers surface the field name to the caller.
type FieldRequiredError struct {
	Field string
}

func (e *FieldRequiredError) Error() string {
	return e.Field + " is required"
}

// Sentinel instances so callers can use errors.Is against a specific field.
var (
	ErrTitleRequired        = &FieldRequiredError{Field: "title"}
	ErrDescriptionRequired  = &FieldRequiredError{Field: "description"}
	ErrPolicyNumberRequired = &FieldRequiredError{Field: "policyNumber"}
)

// UpstreamError wraps a failure from the external store or another
// collaborator. The triggering action is aborted with no partial state
// change; the caller gets a generic retry-suggesting message.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream failure during " + e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps err as an upstream failure for the named operation.
func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

// AppError carries a ready-made HTTP classification alongside the underlying
// error, for the rare cases where the producer already knows the status.
type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError classifies err as a malformed request.
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

// ValidationErrors accumulates per-field messages so a response can report
// every invalid field at once instead of the first one found.
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make(map[string][]string)}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
