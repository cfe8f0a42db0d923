package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Is reports whether target carries the same domain code. Wrapped copies of
// a predefined error stay matchable with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// Predefined domain errors
var (
	// Validation errors
	ErrWeakPassword = NewDomainError("VALIDATION_ERROR", "password does not meet strength requirements")

	// Authentication errors. The same caller-facing message covers every
	// credential failure so account existence is never revealed.
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid email or password")
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrInvalidToken       = NewDomainError("INVALID_TOKEN", "invalid or expired token")
	ErrTokenUsed          = NewDomainError("INVALID_TOKEN", "token has already been used")

	// Conflict errors
	ErrEmailExists = NewDomainError("EMAIL_EXISTS", "email already exists")

	// Configuration errors
	ErrNotConfigured = NewDomainError("NOT_CONFIGURED", "provider is not configured")

	// Rate limiting
	ErrRateLimited = NewDomainError("RATE_LIMITED", "too many requests")

	// System errors
	ErrInternal = NewDomainError("INTERNAL_ERROR", "internal server error")
)

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes.
// This should only be used in the handler/presentation layer.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "VALIDATION_ERROR", "NOT_CONFIGURED":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "INVALID_CREDENTIALS", "UNAUTHORIZED", "INVALID_TOKEN":
		return http.StatusUnauthorized

	// 409 Conflict
	case "EMAIL_EXISTS":
		return http.StatusConflict

	// 429 Too Many Requests
	case "RATE_LIMITED":
		return http.StatusTooManyRequests

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the caller-facing error message. Wrapped
// infrastructure detail stays server-side.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return "internal server error"
}
