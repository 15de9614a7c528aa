package services

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"energydash/internal/config"
	"energydash/internal/session"
	api "energydash/pkg/contracts/api/v1"
)

// AccessService gates the dashboard behind the configured credential pair.
// Authentication state lives on the caller's session only.
type AccessService struct {
	cfg    config.AuthConfig
	logger *slog.Logger
}

// NewAccessService creates an access service for cfg.
func NewAccessService(cfg config.AuthConfig, logger *slog.Logger) *AccessService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessService{cfg: cfg, logger: logger.With(slog.String("service", "access"))}
}

// Required reports whether requests must be authenticated.
func (a *AccessService) Required() bool {
	return a.cfg.Enabled
}

// Allowed reports whether sess may use the dashboard.
func (a *AccessService) Allowed(sess *session.Session) bool {
	return !a.cfg.Enabled || (sess != nil && sess.Authenticated())
}

// Login authenticates sess when username and password match verbatim.
func (a *AccessService) Login(ctx context.Context, sess *session.Session, username, password string) error {
	if !a.cfg.Enabled {
		sess.Authenticate(username)
		return nil
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password)) == 1
	if !userOK || !passOK {
		a.logger.WarnContext(ctx, "Login rejected", slog.String("username", username))
		return ErrInvalidCredentials
	}
	sess.Authenticate(username)
	a.logger.InfoContext(ctx, "Login accepted", slog.String("username", username))
	return nil
}

// Logout revokes sess.
func (a *AccessService) Logout(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	a.logger.InfoContext(ctx, "Logout", slog.String("username", sess.Username()))
	sess.Revoke()
}

// Describe returns the session view exposed to clients.
func (a *AccessService) Describe(sess *session.Session) api.SessionResponse {
	resp := api.SessionResponse{AuthRequired: a.cfg.Enabled}
	if sess == nil {
		return resp
	}
	resp.Authenticated = sess.Authenticated()
	resp.Username = sess.Username()
	if last, ok := sess.LastRequest(); ok {
		resp.LastRequest = &last
	}
	return resp
}
