package signer

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedClock(sec int64) func() time.Time {
	return func() time.Time { return time.Unix(sec, 0) }
}

func TestCanonicalMessage(t *testing.T) {
	got := CanonicalMessage("1700000000", "user/verify", "S3cr3t")
	if got != "Saha.1700000000:user/verify:S3cr3t.Kolay" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSignKnownVector(t *testing.T) {
	s, err := New("S3cr3t", WithClock(fixedClock(1700000000)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sig := s.Sign("user/verify")
	if sig.Timestamp != "1700000000" {
		t.Fatalf("unexpected timestamp %q", sig.Timestamp)
	}
	const want = "cc705feba2bba85dc82430ea7fe1043526c932ddffdeb8136d9e3090828e5c00"
	if sig.Hash != want {
		t.Fatalf("hash = %s, want %s", sig.Hash, want)
	}
	if again := s.Sign("user/verify"); again != sig {
		t.Fatalf("same second produced different signature: %+v vs %+v", again, sig)
	}
}

func TestSignTimestampSensitivity(t *testing.T) {
	now := int64(1700000000)
	s, _ := New("S3cr3t", WithClock(func() time.Time { return time.Unix(now, 0) }))
	first := s.Sign("user/verify")
	now++
	second := s.Sign("user/verify")
	if first.Hash == second.Hash {
		t.Fatal("hash must change with the timestamp")
	}
	if second.Hash != "a5c0a6d6eea5b93913089ad4fe7603ea4fa68dd7d9e9149e62676f74073e4ac5" {
		t.Fatalf("unexpected hash %s", second.Hash)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewVerifier(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v", err)
	}
}

func TestVerifierRoundTrip(t *testing.T) {
	s, _ := New("S3cr3t", WithClock(fixedClock(1700000000)))
	v, _ := NewVerifier("S3cr3t", WithClock(fixedClock(1700000030)))

	sig := s.Sign("user/verify")
	req := httptest.NewRequest("GET", "/api/user/verify?x=1", nil)
	req.Header.Set(HeaderHash, sig.Hash)
	req.Header.Set(HeaderTimestamp, sig.Timestamp)
	if err := v.Verify(req); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifierRejects(t *testing.T) {
	s, _ := New("S3cr3t", WithClock(fixedClock(1700000000)))
	sig := s.Sign("user/verify")

	cases := []struct {
		name string
		now  int64
		path string
		ts   string
		hash string
		want error
	}{
		{name: "missing hash", now: 1700000000, path: "/api/user/verify", ts: sig.Timestamp, want: ErrMissingHeaders},
		{name: "missing timestamp", now: 1700000000, path: "/api/user/verify", hash: sig.Hash, want: ErrMissingHeaders},
		{name: "non numeric timestamp", now: 1700000000, path: "/api/user/verify", ts: "soon", hash: sig.Hash, want: ErrBadTimestamp},
		{name: "stale", now: 1700000061, path: "/api/user/verify", ts: sig.Timestamp, hash: sig.Hash, want: ErrBadTimestamp},
		{name: "future", now: 1699999939, path: "/api/user/verify", ts: sig.Timestamp, hash: sig.Hash, want: ErrBadTimestamp},
		{name: "other path", now: 1700000000, path: "/api/login", ts: sig.Timestamp, hash: sig.Hash, want: ErrHashMismatch},
		{name: "tampered", now: 1700000000, path: "/api/user/verify", ts: sig.Timestamp, hash: sig.Hash[:63] + "f", want: ErrHashMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, _ := NewVerifier("S3cr3t", WithClock(fixedClock(tc.now)))
			if err := v.Check(tc.path, tc.ts, tc.hash); !errors.Is(err, tc.want) {
				t.Fatalf("Check() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVerifierWindowBoundary(t *testing.T) {
	s, _ := New("S3cr3t", WithClock(fixedClock(1700000000)))
	sig := s.Sign("login")
	v, _ := NewVerifier("S3cr3t", WithClock(fixedClock(1700000060)))
	if err := v.Check("/api/login", sig.Timestamp, sig.Hash); err != nil {
		t.Fatalf("60 s skew must be accepted: %v", err)
	}
}

func TestVerifierSkips(t *testing.T) {
	v, _ := NewVerifier("S3cr3t", WithSkipPaths("/healthz", "/metrics"))
	if !v.Skips("/metrics") || v.Skips("/api/login") {
		t.Fatal("unexpected skip evaluation")
	}
}
