package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"energydash/internal/config"
	apierrors "energydash/internal/errors"
	ws "energydash/internal/websocket"
)

// WebSocketHandler upgrades /ws requests and hands them to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	errs     *apierrors.ErrorHandler
	logger   *slog.Logger
}

// NewWebSocketHandler creates the handler. Requests without an Origin header
// are accepted; otherwise the origin must be listed in allowedOrigins, unless
// the list is empty.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WebSocketHandler{
		hub:    hub,
		errs:   apierrors.NewErrorHandler(logger, false),
		logger: logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", allowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.ErrorContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			upgradeErr := apierrors.NewWithDetails(status, apierrors.ErrWebSocketUpgrade.ErrorCode,
				apierrors.ErrWebSocketUpgrade.Message, reason.Error())
			apierrors.WriteProblem(w, h.errs.ErrorToProblem(upgradeErr, r))
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.Serve(h.hub, ws.NewConnectionWrapper(conn), reqID)
	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))
}
