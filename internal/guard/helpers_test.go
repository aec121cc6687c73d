package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"saha.org/internal/i18n"
	"saha.org/internal/permission"
	"saha.org/internal/session"
)

var tr = i18n.New("tr")

func validToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only"))
	require.NoError(t, err)
	return tok
}

func newSession(t *testing.T, token string) *session.Session {
	t.Helper()
	s := session.New(session.NewTokenStore(session.NewMemory()))
	if token != "" {
		require.NoError(t, s.Tokens().Set(context.Background(), token))
	}
	return s
}

// stubVerifier answers with a fixed verification and records the calls.
type stubVerifier struct {
	mu    sync.Mutex
	calls int
	v     Verification
	err   error
}

func (s *stubVerifier) Verify(context.Context) (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.v, s.err
}

func (s *stubVerifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingVerifier waits for release or cancellation.
type blockingVerifier struct {
	started chan struct{}
	release chan struct{}
	v       Verification
}

func newBlockingVerifier(v Verification) *blockingVerifier {
	return &blockingVerifier{started: make(chan struct{}, 4), release: make(chan struct{}), v: v}
}

func (b *blockingVerifier) Verify(ctx context.Context) (Verification, error) {
	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		return Verification{}, ctx.Err()
	case <-b.release:
		return b.v, nil
	}
}

type grants map[[2]string]permission.ViewPermission

func (g grants) Resolve(_ context.Context, link, view string) permission.ViewPermission {
	return g[[2]string{link, view}]
}

var (
	adminUser    = session.Identity{ID: 1, UserTypeID: session.UserTypeAdmin, Firstname: "Ayşe"}
	facilityUser = session.Identity{ID: 2, UserTypeID: session.UserTypeFacility, Firstname: "Mehmet"}
)
