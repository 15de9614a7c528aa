package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "energydash/internal/errors"
	appmw "energydash/internal/middleware"
	"energydash/internal/services"
	api "energydash/pkg/contracts/api/v1"
)

// SessionHandler serves login, logout and session state.
type SessionHandler struct {
	access       *services.AccessService
	gate         *appmw.SessionGate
	validator    *appmw.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewSessionHandler creates a new session handler. gate may be nil, in which
// case logout leaves the cookie in place.
func NewSessionHandler(access *services.AccessService, gate *appmw.SessionGate, validator *appmw.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		access:       access,
		gate:         gate,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "session")),
	}
}

// Routes returns the session routes
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	return r
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.access.Describe(sessionOf(r)))
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	sess := sessionOf(r)
	if sess == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		return
	}
	if err := h.access.Login(r.Context(), sess, req.Username, req.Password); err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, h.access.Describe(sess))
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.access.Logout(r.Context(), sessionOf(r))
	if h.gate != nil {
		h.gate.ClearCookie(w)
	}
	render.JSON(w, r, api.SessionResponse{AuthRequired: h.access.Required()})
}
