// Package session owns the client's credential and the verified identity.
package session

import (
	"context"
	"sync"
)

// Session is the explicit session context shared by guards and the request
// pipeline. It is created once per client and passed to its collaborators.
type Session struct {
	tokens *TokenStore

	mu       sync.RWMutex
	identity *Identity
	onChange []func()
}

// New returns a session over tokens. A token left by a previous run is kept;
// the identity is unknown until the next verification.
func New(tokens *TokenStore) *Session {
	return &Session{tokens: tokens}
}

// Tokens exposes the underlying token store.
func (s *Session) Tokens() *TokenStore { return s.tokens }

// Token returns the stored bearer token or ErrNoToken.
func (s *Session) Token(ctx context.Context) (string, error) { return s.tokens.Get(ctx) }

// Expired reports whether the stored token is absent, malformed or expired.
func (s *Session) Expired(ctx context.Context) bool { return s.tokens.IsExpired(ctx) }

// OnChange registers fn to run whenever the session may belong to a
// different user: on Begin, on End and when a verified identity differs from
// the recorded one. Caches keyed to the current user hook in here.
func (s *Session) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *Session) changed() {
	s.mu.RLock()
	hooks := append([]func(){}, s.onChange...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// Begin persists token and records identity (login or code exchange).
func (s *Session) Begin(ctx context.Context, token string, identity Identity) error {
	defer s.changed()
	if err := s.tokens.Set(ctx, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()
	return nil
}

// SetIdentity records the identity returned by a successful verification.
func (s *Session) SetIdentity(identity Identity) {
	s.mu.Lock()
	switched := s.identity == nil || s.identity.ID != identity.ID
	s.identity = &identity
	s.mu.Unlock()
	if switched {
		s.changed()
	}
}

// Identity returns the current identity, if verified.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// End clears the identity and deletes the stored token (logout).
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	defer s.changed()
	return s.tokens.Clear(ctx)
}
