package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrForbidden     ErrorCode = "FORBIDDEN"
	ErrDependency    ErrorCode = "DEPENDENCY_ERROR"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrBadRequest    ErrorCode = "BAD_REQUEST"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrValidation:    http.StatusUnprocessableEntity,
	ErrNotFound:      http.StatusNotFound,
	ErrAlreadyExists: http.StatusConflict,
	ErrForbidden:     http.StatusForbidden,
	ErrDependency:    http.StatusBadGateway,
	ErrUnauthorized:  http.StatusUnauthorized,
	ErrBadRequest:    http.StatusBadRequest,
	ErrRateLimited:   http.StatusTooManyRequests,
	ErrInternalError: http.StatusInternalServerError,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
