package errors

import (
	stderrors "errors"
	"net/http"
)

// FromError converts a standard error to an AppError
// If the error chain already holds an AppError, it is returned as-is
// Otherwise, it is wrapped as an internal server error
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewServerError("An unexpected error occurred", err)
}

// GetStatusCode extracts the HTTP status code from an AppError, returns 500 if not an AppError
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetErrorCode extracts the error code from an AppError, returns "UNKNOWN_ERROR" if not an AppError
func GetErrorCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorMessage extracts the error message, returns original error message if not an AppError
func GetErrorMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// FromBindError maps request body binding failures to API errors.
func FromBindError(err error) *AppError {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return NewPayloadTooLargeError(tooLarge.Limit)
	}
	return NewValidationError("request body must be a JSON object")
}
