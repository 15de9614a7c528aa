package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"energydash/pkg/contracts/domain"
)

// ErrSuperseded is the cancellation cause of a request replaced by a newer
// one from the same session.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Session is the state attached to one cookie.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	authenticated bool
	username      string
	lastSeen      time.Time
	last          *domain.AggregationRequest
	seq           uint64
	cancel        context.CancelCauseFunc
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastSeen:  now,
	}
}

// Authenticated reports whether the access gate was passed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Username returns the user that logged in, or "".
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Authenticate marks the session as having passed the gate.
func (s *Session) Authenticate(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.username = username
}

// Revoke clears the authentication and cancels any request in flight.
func (s *Session) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.username = ""
	if s.cancel != nil {
		s.cancel(context.Canceled)
		s.cancel = nil
	}
}

// Begin starts a new request for the session. The previous request, if still
// running, is cancelled with ErrSuperseded. The returned done func must be
// called when the request ends.
func (s *Session) Begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel(context.Canceled)
	}
}

// Superseded reports whether ctx was cancelled because a newer request began.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}

// Remember stores req as the last request of the session.
func (s *Session) Remember(req domain.AggregationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &req
}

// LastRequest returns the last remembered request.
func (s *Session) LastRequest() (domain.AggregationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.AggregationRequest{}, false
	}
	return *s.last, true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
