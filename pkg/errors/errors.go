package errors

import (
	"fmt"
	"net/http"
)

// Error codes returned in API error payloads.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeServer          = "SERVER_ERROR"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeNotFound        = "NOT_FOUND"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, CodeNotFound, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// NewValidationError reports caller input that was rejected before any state changed.
func NewValidationError(message string) *AppError {
	return NewBadRequestError(CodeValidation, message)
}

// NewServerError wraps an internal failure. The cause is logged but never sent to clients.
func NewServerError(message string, cause error) *AppError {
	appErr := NewInternalServerError(CodeServer, message)
	appErr.Cause = cause
	return appErr
}

// NewTooManyRequestsError creates a 429 error
func NewTooManyRequestsError(message string) *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, message)
}

// NewPayloadTooLargeError creates a 413 error
func NewPayloadTooLargeError(limit int64) *AppError {
	return NewError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		fmt.Sprintf("request body exceeds %d bytes", limit))
}

// IsValidation reports whether err carries a validation failure.
func IsValidation(err error) bool {
	return GetErrorCode(err) == CodeValidation
}

// IsServer reports whether err carries an internal failure.
func IsServer(err error) bool {
	return GetErrorCode(err) == CodeServer
}
