package session

import (
	"context"
	"errors"
	"time"
)

// EntryName is the single persisted entry holding the bearer token.
const EntryName = "access_token"

// ErrNoToken is returned by Get when no credential is stored.
var ErrNoToken = errors.New("session: no token")

// Backend persists the raw token string.
type Backend interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
	Close() error
}

// TokenStore holds the current bearer token and answers expiry questions.
type TokenStore struct {
	backend Backend
	now     func() time.Time
}

// TokenStoreOption configures a TokenStore.
type TokenStoreOption func(*TokenStore)

// WithClock overrides the time source used by IsExpired.
func WithClock(fn func() time.Time) TokenStoreOption {
	return func(s *TokenStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenStore wraps backend.
func NewTokenStore(backend Backend, opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored token or ErrNoToken.
func (s *TokenStore) Get(ctx context.Context) (string, error) {
	tok, err := s.backend.Load(ctx)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Set replaces the stored token.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	return s.backend.Save(ctx, token)
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx)
}

// IsExpired never fails: any read or decode problem reports expired.
func (s *TokenStore) IsExpired(ctx context.Context) bool {
	tok, err := s.Get(ctx)
	if err != nil {
		return true
	}
	return Expired(tok, s.now())
}

// Close releases the backend.
func (s *TokenStore) Close() error { return s.backend.Close() }
