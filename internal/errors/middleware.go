package errors

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const maxLoggedBody = 1 << 20

var sensitiveFields = []string{"password", "token", "secret", "api_key", "apiKey"}

// ErrorMiddleware logs every request with a status-dependent level and turns
// panics into problem responses. Bodies of failed requests are logged with
// credentials redacted.
type ErrorMiddleware struct {
	handler   *ErrorHandler
	logger    *slog.Logger
	skipPaths []string
}

// NewErrorMiddleware creates a new error handling middleware. Requests whose
// path starts with one of skipPaths are served without access logging.
func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger, skipPaths ...string) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler:   handler,
		logger:    logger.With(slog.String("component", "error_middleware")),
		skipPaths: skipPaths,
	}
}

// Handler returns the middleware handler function
func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		var requestBody []byte
		if r.Body != nil && r.ContentLength > 0 && r.ContentLength < maxLoggedBody {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				m.handler.HandlePanic(ww, r, rec)
			}
			if m.skipped(r.URL.Path) {
				return
			}
			m.log(r, ww, time.Since(start), requestBody)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (m *ErrorMiddleware) skipped(path string) bool {
	for _, p := range m.skipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *ErrorMiddleware) log(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration, body []byte) {
	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.Int("bytes", ww.BytesWritten()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}
	if status >= 400 && len(body) > 0 {
		s := sanitizeRequestBody(string(body))
		if len(s) > 500 {
			s = s[:500] + "..."
		}
		attrs = append(attrs, slog.String("request_body", s))
	}

	m.logger.LogAttrs(r.Context(), level, "http request", attrs...)
}

// sanitizeRequestBody redacts credential fields of a JSON body
func sanitizeRequestBody(body string) string {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return body
	}
	for _, field := range sensitiveFields {
		if _, exists := data[field]; exists {
			data[field] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return string(sanitized)
}
