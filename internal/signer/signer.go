// Package signer computes and checks the Hash/Timestamp request signature shared
// by the panel client and the API.
//
// The canonical message embeds the shared secret instead of keying an HMAC with
// it. The format is a wire contract with deployed backends and is reproduced
// byte for byte.
package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderHash      = "Hash"
	HeaderTimestamp = "Timestamp"

	messagePrefix = "Saha."
	messageSuffix = ".Kolay"
)

// ErrMissingSecret is returned when a signer or verifier is built without a secret.
var ErrMissingSecret = errors.New("signer: shared secret is required")

// Signature is the per-request descriptor attached as headers.
type Signature struct {
	Path      string
	Timestamp string
	Hash      string
}

// Signer derives signatures for API paths.
type Signer struct {
	secret string
	now    func() time.Time
}

// Option configures a Signer or Verifier.
type Option func(*options)

type options struct {
	now    func() time.Time
	window time.Duration
	strip  string
	skip   []string
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(o *options) {
		if fn != nil {
			o.now = fn
		}
	}
}

// New returns a Signer for secret.
func New(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Signer{secret: secret, now: o.now}, nil
}

// Sign returns the signature of path at the current Unix second.
func (s *Signer) Sign(path string) Signature {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	return Signature{Path: path, Timestamp: ts, Hash: Hash(ts, path, s.secret)}
}

// CanonicalMessage assembles the string that is hashed.
func CanonicalMessage(timestamp, path, secret string) string {
	var b strings.Builder
	b.Grow(len(messagePrefix) + len(timestamp) + len(path) + len(secret) + len(messageSuffix) + 2)
	b.WriteString(messagePrefix)
	b.WriteString(timestamp)
	b.WriteByte(':')
	b.WriteString(path)
	b.WriteByte(':')
	b.WriteString(secret)
	b.WriteString(messageSuffix)
	return b.String()
}

// Hash is the lowercase hex SHA-256 of the canonical message.
func Hash(timestamp, path, secret string) string {
	sum := sha256.Sum256([]byte(CanonicalMessage(timestamp, path, secret)))
	return hex.EncodeToString(sum[:])
}
