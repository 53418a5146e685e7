// Package apperror defines the operational error type returned by handlers
// and the normalizer that turns any error into the JSON error response.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

const (
	StatusFail  = "fail"
	StatusError = "error"
)

// AppError is an anticipated failure whose message is safe to show to clients.
type AppError struct {
	Message    string
	StatusCode int
	Status     string

	stack error
}

// New creates an operational error. Status is "fail" for 4xx codes and "error" otherwise.
func New(message string, statusCode int) *AppError {
	return &AppError{
		Message:    message,
		StatusCode: statusCode,
		Status:     StatusFor(statusCode),
		stack:      errors.New(message),
	}
}

// Newf is New with a formatted message.
func Newf(statusCode int, format string, a ...interface{}) *AppError {
	return New(fmt.Sprintf(format, a...), statusCode)
}

func (e *AppError) Error() string {
	return e.Message
}

// IsOperational is always true for AppError.
func (e *AppError) IsOperational() bool {
	return true
}

// Stack returns the call stack captured by New.
func (e *AppError) Stack() string {
	if e.stack == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.stack)
}

// StatusFor maps a status code to the "fail"/"error" envelope status.
func StatusFor(statusCode int) string {
	if statusCode >= 400 && statusCode < 500 {
		return StatusFail
	}
	return StatusError
}

// Common operational errors.
func NotFound() *AppError {
	return New("No document found with that ID", http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(message, http.StatusUnauthorized)
}

func Forbidden() *AppError {
	return New("You do not have permission to perform this action", http.StatusForbidden)
}
