package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"saha.org/internal/obs"
)

// CodeLength is the number of digits of a verification code.
const CodeLength = 6

type pendingCode struct {
	code      string
	userID    int64
	jti       string
	expiresAt time.Time
}

// CodeBook keeps one outstanding verification code per login.
type CodeBook struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	codes map[string]pendingCode
}

// NewCodeBook returns a CodeBook whose codes expire after ttl.
func NewCodeBook(ttl time.Duration, now func() time.Time) *CodeBook {
	if now == nil {
		now = time.Now
	}
	return &CodeBook{ttl: ttl, now: now, codes: map[string]pendingCode{}}
}

// Issue creates a fresh code for login, replacing any previous one.
func (b *CodeBook) Issue(login string, userID int64, jti string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%0*d", CodeLength, n.Int64())
	b.mu.Lock()
	b.codes[NormalizeLogin(login)] = pendingCode{code: code, userID: userID, jti: jti, expiresAt: b.now().Add(b.ttl)}
	b.mu.Unlock()
	return code, nil
}

// Redeem consumes the code of login and returns the token id it confirms.
// Expired codes are dropped; a wrong code leaves the entry in place.
func (b *CodeBook) Redeem(login string, code int) (userID int64, jti string, err error) {
	key := NormalizeLogin(login)
	given := fmt.Sprintf("%0*d", CodeLength, code)

	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.codes[key]
	if !ok {
		return 0, "", ErrInvalidCode
	}
	if !b.now().Before(p.expiresAt) {
		delete(b.codes, key)
		return 0, "", ErrInvalidCode
	}
	if code < 0 || subtle.ConstantTimeCompare([]byte(p.code), []byte(given)) != 1 {
		return 0, "", ErrInvalidCode
	}
	delete(b.codes, key)
	return p.userID, p.jti, nil
}

// Sender delivers a verification code to the user.
type Sender interface {
	Send(ctx context.Context, method string, user *User, code string) error
}

// LogSender writes codes to the structured log instead of an SMS or mail
// provider.
type LogSender struct{}

func (LogSender) Send(_ context.Context, method string, user *User, code string) error {
	target := user.Email
	if method == "sms" {
		target = user.Phone
	}
	obs.Info("verification_code_sent", map[string]any{"method": method, "user_id": user.ID, "target": target, "code": code})
	return nil
}
