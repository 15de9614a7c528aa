package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/session"
)

const testCookie = "energydash_session"

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	return nil
}

func TestSessionGateCreatesSession(t *testing.T) {
	store := session.NewStore(time.Hour, discardLogger())
	gate := NewSessionGate(store, testCookie, false, discardLogger())

	var got *session.Session
	h := gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/datasets", nil))

	require.NotNil(t, got)
	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.Equal(t, got.ID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 1, store.Len())

	// the cookie resolves to the same session
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/datasets", nil)
	req.AddCookie(c)
	var again *session.Session
	h = gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		again, _ = session.FromContext(r.Context())
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Same(t, got, again)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestSessionGateAuthRequired(t *testing.T) {
	store := session.NewStore(time.Hour, discardLogger())
	gate := NewSessionGate(store, testCookie, true, discardLogger())
	h := gate.Handler(okHandler())

	authed := store.Create()
	authed.Authenticate("energie")
	anonymous := store.Create()

	tests := []struct {
		name    string
		path    string
		session *session.Session
		want    int
	}{
		{name: "protected without session", path: "/api/dashboard/aggregate", want: http.StatusUnauthorized},
		{name: "protected anonymous", path: "/api/dashboard/aggregate", session: anonymous, want: http.StatusUnauthorized},
		{name: "protected authenticated", path: "/api/dashboard/aggregate", session: authed, want: http.StatusOK},
		{name: "login is open", path: "/api/session/login", want: http.StatusOK},
		{name: "health is open", path: "/api/health/live", session: anonymous, want: http.StatusOK},
		{name: "static prefix is open", path: "/static/app.js", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.session != nil {
				req.AddCookie(&http.Cookie{Name: testCookie, Value: tt.session.ID})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestSessionGateExpiredCookie(t *testing.T) {
	store := session.NewStore(time.Hour, discardLogger())
	gate := NewSessionGate(store, testCookie, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	gate.Handler(okHandler()).ServeHTTP(rec, req)

	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.NotEqual(t, "stale", c.Value)
}

func TestClearCookie(t *testing.T) {
	gate := NewSessionGate(session.NewStore(time.Hour, discardLogger()), testCookie, false, discardLogger()).SecureCookie(true)
	rec := httptest.NewRecorder()
	gate.ClearCookie(rec)

	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Secure)
}
