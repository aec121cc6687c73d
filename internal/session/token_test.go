package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, subject string, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unknown-to-client"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestDecode(t *testing.T) {
	exp := time.Unix(1900000000, 0)
	claims, err := Decode(signToken(t, "42", &exp))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "42" || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"} {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Decode(%q) err = %v, want ErrMalformedToken", raw, err)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "past", raw: signToken(t, "1", &past), want: true},
		{name: "exact second", raw: signToken(t, "1", &now), want: true},
		{name: "future", raw: signToken(t, "1", &future), want: false},
		{name: "no exp", raw: signToken(t, "1", nil), want: true},
		{name: "absent", raw: "", want: true},
		{name: "garbage", raw: "not-a-token", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Expired(tc.raw, now); got != tc.want {
				t.Fatalf("Expired() = %v, want %v", got, tc.want)
			}
		})
	}
}
