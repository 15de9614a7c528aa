package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/infrastructure"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated when missing"},
		{name: "propagated from header", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, trace string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				trace = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, seen, trace)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	h := NewRateLimiter(0.001, 2, discardLogger()).Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/datasets", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		<-r.Context().Done()
		assert.ErrorIs(t, r.Context().Err(), context.DeadlineExceeded)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.False(t, deadline.IsZero())
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantAllow  string
		wantStatus int
	}{
		{name: "allowed origin", origins: []string{"http://localhost:3000"}, origin: "http://localhost:3000", method: http.MethodGet, wantAllow: "http://localhost:3000", wantStatus: 200},
		{name: "unknown origin", origins: []string{"http://localhost:3000"}, origin: "http://evil.test", method: http.MethodGet, wantStatus: 200},
		{name: "wildcard", origins: []string{"*"}, origin: "http://any.test", method: http.MethodGet, wantAllow: "http://any.test", wantStatus: 200},
		{name: "preflight", origins: []string{"*"}, origin: "http://any.test", method: http.MethodOptions, wantAllow: "http://any.test", wantStatus: 204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowedOrigins: tt.origins, Logger: discardLogger()})(okHandler())
			req := httptest.NewRequest(tt.method, "/api/dashboard/aggregate", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddlewareCountsRequests(t *testing.T) {
	providers := infrastructure.NoopProviders(discardLogger())
	m := NewOTelMiddleware(providers, infrastructure.MustBusinessMetrics(providers))

	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/reload", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", GetRealIP(req))

	req.Header.Set("X-Real-IP", "192.168.1.2")
	assert.Equal(t, "192.168.1.2", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", "172.16.0.3")
	assert.Equal(t, "172.16.0.3", GetRealIP(req))
}
