package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// Problem types
const (
	TypeValidation    = "/errors/validation"
	TypeNotFound      = "/errors/not-found"
	TypeUnauthorized  = "/errors/unauthorized"
	TypeRateLimit     = "/errors/rate-limit"
	TypeInternal      = "/errors/internal"
	TypeServiceDown   = "/errors/service-unavailable"
	TypeTimeout       = "/errors/timeout"
	TypeConflict      = "/errors/conflict"
	TypeNotEnoughData = "/errors/regression/not-enough-data"
	TypeSourceFailed  = "/errors/data/source-failed"
	TypeDataCorrupted = "/errors/data/corrupted"
	TypeWebSocket     = "/errors/websocket/upgrade-failed"
)

var errorCodeTypes = map[string]string{
	"INVALID_REQUEST":          TypeValidation,
	"VALIDATION_FAILED":        TypeValidation,
	"NOT_FOUND":                TypeNotFound,
	"UNAUTHORIZED":             TypeUnauthorized,
	"INVALID_CREDENTIALS":      TypeUnauthorized,
	"REQUEST_SUPERSEDED":       TypeConflict,
	"RELOAD_IN_PROGRESS":       TypeConflict,
	"NOT_ENOUGH_DATA":          TypeNotEnoughData,
	"SNAPSHOT_UNAVAILABLE":     TypeServiceDown,
	"WEBSOCKET_UPGRADE_FAILED": TypeWebSocket,
}

var appErrorStatus = map[ErrorType]struct {
	status      int
	problemType string
}{
	ErrTypeParsing: {http.StatusUnprocessableEntity, TypeDataCorrupted},
	ErrTypeSource:  {http.StatusBadGateway, TypeSourceFailed},
	ErrTypeNetwork: {http.StatusBadGateway, TypeSourceFailed},
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	WriteProblem(w, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if m, ok := appErrorStatus[appErr.Type]; ok {
			problem := NewProblemDetails(m.status, m.problemType, http.StatusText(m.status), appErr.Message, r.URL.Path).
				WithExtension("error_type", string(appErr.Type))
			if len(appErr.Context) > 0 {
				problem.WithExtension("context", appErr.Context)
			}
			return problem
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType, ok := errorCodeTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
	}

	WriteProblem(w, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeValidation,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

// WriteProblem writes p as application/problem+json
func WriteProblem(w http.ResponseWriter, p *ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}
