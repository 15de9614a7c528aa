package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined errors
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrWebSocketUpgrade = New(http.StatusBadRequest, "WEBSOCKET_UPGRADE_FAILED", "WebSocket upgrade failed")

	// 401 Unauthorized
	ErrUnauthorized       = New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")

	// 409 Conflict
	ErrRequestSuperseded = New(http.StatusConflict, "REQUEST_SUPERSEDED", "A newer request from this session replaced this one")
	ErrReloadInProgress  = New(http.StatusConflict, "RELOAD_IN_PROGRESS", "A reload is already running")

	// 422 Unprocessable Entity
	ErrNotEnoughData = New(http.StatusUnprocessableEntity, "NOT_ENOUGH_DATA", "Not enough data to fit a regression")

	// 503 Service Unavailable
	ErrSnapshotUnavailable = New(http.StatusServiceUnavailable, "SNAPSHOT_UNAVAILABLE", "No dataset snapshot is loaded")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// NotEnoughData creates a 422 error carrying the reason a fit was rejected
func NotEnoughData(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "NOT_ENOUGH_DATA", ErrNotEnoughData.Message, err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
