package common

import (
	"errors"
	"net/http"
)

// Common error types
var (
	ErrNotFound              = errors.New("resource not found")
	ErrValidation            = errors.New("validation error")
	ErrInternalServer        = errors.New("internal server error")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrModelUnavailable      = errors.New("model unavailable")
	ErrComputation           = errors.New("computation error")
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped error for errors.Is checks
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports malformed or out-of-range input. Rejected at
// the boundary, never silently corrected.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: message,
		Err:     ErrValidation,
	}
}

// NewNotFoundError reports a missing resource such as an unknown job ID.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
		Err:     ErrNotFound,
	}
}

// NewComputationError reports a programming-contract violation inside the
// pipeline, surfaced to the caller as an internal error.
func NewComputationError(message string, err error) *AppError {
	wrapped := err
	if wrapped == nil {
		wrapped = ErrComputation
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     wrapped,
	}
}

// NewInternalError creates a generic 500 error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}
