package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "energydash/internal/errors"
	"energydash/internal/session"
)

// SessionGate attaches a session to every request, creating one and setting
// its cookie when the client has none. When authentication is required,
// requests outside the open paths need an authenticated session.
type SessionGate struct {
	store        *session.Store
	cookieName   string
	authRequired bool
	secureCookie bool
	openPaths    []string
	openPrefixes []string
	logger       *slog.Logger
}

// NewSessionGate creates the gate. authRequired mirrors auth.enabled.
func NewSessionGate(store *session.Store, cookieName string, authRequired bool, logger *slog.Logger) *SessionGate {
	return &SessionGate{
		store:        store,
		cookieName:   cookieName,
		authRequired: authRequired,
		logger:       logger.With(slog.String("component", "session_gate")),
		openPaths: []string{
			"/",
			"/api/session",
			"/api/session/login",
			"/api/session/logout",
			"/api/health",
			"/api/health/live",
			"/api/health/ready",
			"/api/version",
			"/metrics",
		},
		openPrefixes: []string{
			"/static/",
			"/assets/",
		},
	}
}

// SecureCookie marks the session cookie Secure (for TLS deployments).
func (g *SessionGate) SecureCookie(secure bool) *SessionGate {
	g.secureCookie = secure
	return g
}

// AddOpenPath exempts path from authentication.
func (g *SessionGate) AddOpenPath(path string) {
	g.openPaths = append(g.openPaths, path)
}

// Handler returns the middleware handler function
func (g *SessionGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s := g.lookup(r)
		if s == nil {
			s = g.store.Create()
			g.setCookie(w, s.ID)
			g.logger.DebugContext(ctx, "session created", slog.String("session_id", s.ID))
		}
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("session.authenticated", s.Authenticated()))

		if g.authRequired && !s.Authenticated() && !g.isOpen(r.URL.Path) {
			g.logger.WarnContext(ctx, "unauthenticated request rejected",
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", GetRealIP(r)),
			)
			apierrors.WriteProblem(w, apierrors.ProblemFromStatus(
				http.StatusUnauthorized,
				apierrors.TypeUnauthorized,
				"Authentication required",
				r.URL.Path,
			).WithExtension("trace_id", GetRequestID(ctx)))
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, s)))
	})
}

// ClearCookie expires the session cookie on the client.
func (g *SessionGate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.secureCookie,
	})
}

func (g *SessionGate) lookup(r *http.Request) *session.Session {
	c, err := r.Cookie(g.cookieName)
	if err != nil {
		return nil
	}
	s, ok := g.store.Get(c.Value)
	if !ok {
		return nil
	}
	return s
}

func (g *SessionGate) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.secureCookie,
	})
}

func (g *SessionGate) isOpen(path string) bool {
	for _, p := range g.openPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range g.openPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
