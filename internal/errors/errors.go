package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes returned in the {error:{code}} body.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrCodeGenerationFailed = "LLM_GENERATION_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code       string         // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message    string         // Human-readable error message
	Status     int            // HTTP status code
	Field      string         // Offending field for validation errors
	Constraint string         // Violated constraint for validation errors
	Details    map[string]any // Extra detail echoed to the client
	ResetAt    time.Time      // Window boundary for rate-limit errors
	Err        error          // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewValidationError creates a VALIDATION_ERROR for one field.
func NewValidationError(field, constraint, reason string) *AppError {
	details := map[string]any{"field": field}
	if constraint != "" {
		details["constraint"] = constraint
	}
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    reason,
		Status:     http.StatusBadRequest,
		Field:      field,
		Constraint: constraint,
		Details:    details,
	}
}

// NewBadRequestError creates a VALIDATION_ERROR not tied to a single field,
// such as a malformed body.
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates an UNAUTHORIZED error for a missing, invalid
// or expired credential.
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a FORBIDDEN error.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewRateLimitError creates a RATE_LIMIT_EXCEEDED error carrying the window reset.
func NewRateLimitError(limit int, window time.Duration, resetAt time.Time) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimit,
		Message: fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %s allowed", limit, humanWindow(window)),
		Status:  http.StatusTooManyRequests,
		ResetAt: resetAt,
	}
}

// NewGenerationFailedError wraps an LLM failure.
func NewGenerationFailedError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeGenerationFailed,
		Message: "Failed to generate flashcards from the provided text",
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "An unexpected error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func humanWindow(d time.Duration) string {
	switch d {
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	default:
		return d.String()
	}
}
