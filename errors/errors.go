// Package errors provides the application error taxonomy for the catalogue platform.
package errors

import (
	"errors"
	"fmt"
	"strconv"
)

// Error codes.
const (
	CodeInternal               = "INTERNAL_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeValidation             = "VALIDATION_ERROR"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeAuthFailed             = "AUTH_FAILED"
	CodeTimeout                = "TIMEOUT"
	CodeUnavailable            = "SERVICE_UNAVAILABLE"
	CodeFetchFailed            = "FETCH_FAILED"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	CodeSelectionLimitReached  = "SELECTION_LIMIT_REACHED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Wrap wraps an error with an AppError.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Internal creates an internal error.
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(message string, details map[string]string) *AppError {
	return New(CodeValidation, message).WithDetails(details)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message)
}

// AuthFailed wraps an identity provider rejection.
func AuthFailed(err error, message string) *AppError {
	return Wrap(err, CodeAuthFailed, message)
}

// Timeout creates a timeout error.
func Timeout(message string) *AppError {
	return New(CodeTimeout, message)
}

// Unavailable creates a service unavailable error.
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message)
}

// FetchFailed wraps a network or API failure during a catalogue fetch.
// Callers surface it with a retry affordance; nothing retries it automatically.
func FetchFailed(err error) *AppError {
	return Wrap(err, CodeFetchFailed, "failed to fetch vehicles")
}

// PersistenceUnavailable wraps a key-value store failure for the given operation and key.
func PersistenceUnavailable(err error, op, key string) *AppError {
	return Wrap(err, CodePersistenceUnavailable, fmt.Sprintf("storage %s failed", op)).
		WithDetails(map[string]string{"key": key})
}

// SelectionLimitReached reports a rejected add to a bounded selection.
func SelectionLimitReached(limit int) *AppError {
	return New(CodeSelectionLimitReached, fmt.Sprintf("You can only compare up to %d cars at a time.", limit)).
		WithDetails(map[string]string{"limit": strconv.Itoa(limit)})
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsFetchFailed checks if the error is a catalogue fetch failure.
func IsFetchFailed(err error) bool {
	return hasCode(err, CodeFetchFailed)
}

// IsPersistenceUnavailable checks if the error is a storage failure.
func IsPersistenceUnavailable(err error) bool {
	return hasCode(err, CodePersistenceUnavailable)
}

// IsSelectionLimitReached checks if the error is a selection limit rejection.
func IsSelectionLimitReached(err error) bool {
	return hasCode(err, CodeSelectionLimitReached)
}

// Code returns the error code or empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
