package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken indicates the claims segment could not be decoded.
var ErrMalformedToken = errors.New("session: malformed token")

// Claims are the decoded, unverified claims of a bearer token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Decode reads the claims segment of a JWT without checking its signature. The
// client never holds the signing key; the backend verifies on every request.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrMalformedToken
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &rc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if rc.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: exp claim missing", ErrMalformedToken)
	}
	return Claims{Subject: rc.Subject, ExpiresAt: rc.ExpiresAt.Time}, nil
}

// Expired reports whether raw is expired at now. Absent, malformed and
// exp-less tokens are expired. A token is expired from its exp second onward.
func Expired(raw string, now time.Time) bool {
	claims, err := Decode(raw)
	if err != nil {
		return true
	}
	return now.Unix() >= claims.ExpiresAt.Unix()
}
