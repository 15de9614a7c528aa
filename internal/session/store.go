package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 12 * time.Hour

// Store is an in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	// OnChange, when set, is called with the new session count.
	OnChange func(delta int64)
}

// NewStore creates a store evicting sessions idle for longer than ttl.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_store")),
	}
}

// Create registers a fresh unauthenticated session.
func (st *Store) Create() *Session {
	s := newSession(st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.changed(1)
	return s
}

// Get returns a live session and refreshes its idle timer.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := st.now()
	if now.Sub(s.idleSince()) > st.ttl {
		st.Delete(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Delete revokes and removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Revoke()
		st.changed(-1)
	}
}

// Len returns the number of sessions held.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	now := st.now()

	var expired []string
	st.mu.RLock()
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > st.ttl {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()

	for _, id := range expired {
		st.Delete(id)
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.DebugContext(ctx, "expired sessions removed", slog.Int("count", n))
			}
		}
	}
}

func (st *Store) changed(delta int64) {
	if st.OnChange != nil {
		st.OnChange(delta)
	}
}
