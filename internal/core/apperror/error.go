// Package apperror provides structured error handling for the sync engine.
// All business errors surfaced by engine operations must use AppError so the
// HTTP layer and the notification sink can react on machine-readable codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by engine operations
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeStore    = "STORE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Referential integrity (422)
	CodeReference = "RELATED_ENTITY_NOT_FOUND"

	// Delete blocked by dependent records (409)
	CodeDependency = "DEPENDENCY_CONFLICT"

	// Unique key collisions (409)
	CodeDuplicate = "DUPLICATE_ENTRY"

	// Illegal status transition (422)
	CodeTransition = "INVALID_STATUS_TRANSITION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Authentication errors (401/403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (entity names, dependent counts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewReference creates a dangling foreign key error (422).
// Raised when a write references an entity that does not exist.
func NewReference(entity string, field string, id any) *AppError {
	return &AppError{
		Code:       CodeReference,
		Message:    fmt.Sprintf("related %s does not exist", entity),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "field": field, "id": id},
	}
}

// NewDependency creates a delete-blocked error (409) carrying the dependent count.
func NewDependency(entity string, dependent string, count int) *AppError {
	return &AppError{
		Code:       CodeDependency,
		Message:    fmt.Sprintf("cannot delete %s: %d dependent %s record(s) exist", entity, count, dependent),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "dependent": dependent, "count": count},
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewTransition creates an illegal status transition error (422)
func NewTransition(entity string, from, to string) *AppError {
	return &AppError{
		Code:       CodeTransition,
		Message:    fmt.Sprintf("%s cannot move from %q to %q", entity, from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// NewStore wraps an opaque store failure (500).
// The underlying error is preserved for logs but hidden from clients.
func NewStore(op string, err error) *AppError {
	return &AppError{
		Code:       CodeStore,
		Message:    fmt.Sprintf("storage operation failed: %s", op),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsReference checks if error is CodeReference
func IsReference(err error) bool { return is(err, CodeReference) }

// IsDependency checks if error is CodeDependency
func IsDependency(err error) bool { return is(err, CodeDependency) }

// IsDuplicate checks if error is CodeDuplicate
func IsDuplicate(err error) bool { return is(err, CodeDuplicate) }

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool { return is(err, CodeValidation) }
