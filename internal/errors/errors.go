package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the classified failure returned by every service operation.
// Anything that is not an *APIError is treated as an unexpected fault.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`

	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause of dependency failures
func (e *APIError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  code.StatusCode(),
	}
}

// ValidationError creates a VALIDATION_ERROR for missing or malformed input
func ValidationError(field, message string) *APIError {
	e := newError(ErrValidation, message)
	e.Field = field
	return e
}

// NotFound creates a NOT_FOUND error. Tenant mismatches use it too so that
// other tenants' rows are indistinguishable from absent ones.
func NotFound(resource string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// AlreadyExists creates an ALREADY_EXISTS error
func AlreadyExists(resource string) *APIError {
	return newError(ErrAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

// Forbidden creates a FORBIDDEN error for insufficient roles
func Forbidden(message string) *APIError {
	return newError(ErrForbidden, message)
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return newError(ErrUnauthorized, message)
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return newError(ErrBadRequest, message)
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return newError(ErrRateLimited, message)
}

// Dependency wraps a failed call to persistence, blob storage or notification delivery
func Dependency(service string, cause error) *APIError {
	e := newError(ErrDependency, fmt.Sprintf("%s is temporarily unavailable, please try again", service))
	e.cause = cause
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newError(ErrInternalError, message)
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// WithCause attaches an underlying error without exposing it to clients
func (e *APIError) WithCause(cause error) *APIError {
	e.cause = cause
	return e
}

// As extracts an *APIError from err's chain
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// CodeOf classifies err; unclassified errors are INTERNAL_ERROR and nil is ""
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if apiErr, ok := As(err); ok {
		return apiErr.Code
	}
	return ErrInternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
