package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Session is an issued login token.
type Session struct {
	Token      string     `json:"token"`
	Capability Capability `json:"capability"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// SessionRegistry maps opaque tokens to capabilities for the lifetime of a login.
type SessionRegistry struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionRegistry creates a registry whose tokens expire after ttl.
func NewSessionRegistry(clock clockwork.Clock, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]Session),
	}
}

// TTL is how long an issued token stays valid.
func (r *SessionRegistry) TTL() time.Duration {
	return r.ttl
}

// Issue stores a new token for the capability.
func (r *SessionRegistry) Issue(c Capability) Session {
	s := Session{
		Token:      uuid.NewString(),
		Capability: c,
		ExpiresAt:  r.clock.Now().Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[s.Token] = s
	r.mu.Unlock()

	return s
}

// Resolve returns a copy of the capability behind token.
func (r *SessionRegistry) Resolve(token string) (*Capability, error) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if !r.clock.Now().Before(s.ExpiresAt) {
		r.Revoke(token)
		return nil, ErrSessionNotFound
	}

	c := s.Capability
	return &c, nil
}

// Revoke drops the token. Unknown tokens are ignored.
func (r *SessionRegistry) Revoke(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Len returns the number of live and not yet swept sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (r *SessionRegistry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for token, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, token)
			dropped++
		}
	}
	return dropped
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := r.Sweep(); n > 0 {
				log.Debug().Int("expired", n).Msg("swept expired sessions")
			}
		}
	}
}
