package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppError represents a domain-specific error with structured information
type AppError struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Details    any       `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation,omitempty"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithOperation tags the error with the operation that produced it.
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// Error codes for different error categories
const (
	ErrInvalidInput     = "INVALID_INPUT"     // 400
	ErrValidationFailed = "VALIDATION_FAILED" // 422
	ErrNotFound         = "NOT_FOUND"         // 404
	ErrInternal         = "INTERNAL_ERROR"    // 500
	ErrImportFailed     = "IMPORT_FAILED"     // 500
	ErrExportFailed     = "EXPORT_FAILED"     // 500
	ErrStoreDisposed    = "STORE_DISPOSED"    // 500, use after teardown
	ErrTooLarge         = "PAYLOAD_TOO_LARGE" // 413
	ErrRateLimit        = "RATE_LIMITED"      // 429
	ErrUnavailable      = "UNAVAILABLE"       // 503
)

// NewAppError creates a new AppError with the specified parameters
func NewAppError(code, message string, statusCode int, details any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates a new AppError with underlying cause
func NewAppErrorWithCause(code, message string, statusCode int, cause error, details any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
		Timestamp:  time.Now(),
		Cause:      cause,
	}
}

// ErrDisposed builds the error returned by a store used after Close.
func ErrDisposed(store string) *AppError {
	return NewAppError(ErrStoreDisposed, store+" store used after dispose", 500, map[string]any{"store": store})
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, ErrValidationFailed)
}

// IsDisposed checks if the error reports use of a disposed store
func IsDisposed(err error) bool {
	return hasCode(err, ErrStoreDisposed)
}
