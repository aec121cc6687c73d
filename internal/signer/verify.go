package signer

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultWindow is the accepted distance between client and server clocks.
	DefaultWindow = 60 * time.Second
	// DefaultStripPrefix is removed from the request path before hashing.
	DefaultStripPrefix = "/api/"
)

var (
	ErrMissingHeaders = errors.New("signer: hash or timestamp header missing")
	ErrBadTimestamp   = errors.New("signer: timestamp outside accepted window")
	ErrHashMismatch   = errors.New("signer: hash mismatch")
)

// WithWindow sets the accepted clock distance for a Verifier.
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithStripPrefix sets the path prefix removed before hashing.
func WithStripPrefix(prefix string) Option {
	return func(o *options) { o.strip = prefix }
}

// WithSkipPaths lists exact paths that are not verified.
func WithSkipPaths(paths ...string) Option {
	return func(o *options) { o.skip = append(o.skip, paths...) }
}

// Verifier checks signatures on incoming requests.
type Verifier struct {
	secret string
	now    func() time.Time
	window time.Duration
	strip  string
	skip   []string
}

// NewVerifier returns a Verifier for secret.
func NewVerifier(secret string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	o := options{now: time.Now, window: DefaultWindow, strip: DefaultStripPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return &Verifier{secret: secret, now: o.now, window: o.window, strip: o.strip, skip: o.skip}, nil
}

// Skips reports whether path bypasses verification.
func (v *Verifier) Skips(path string) bool {
	return slices.Contains(v.skip, path)
}

// Verify checks the signature headers of r against its escaped URL path,
// the form the client hashes.
func (v *Verifier) Verify(r *http.Request) error {
	return v.Check(r.URL.EscapedPath(), r.Header.Get(HeaderTimestamp), r.Header.Get(HeaderHash))
}

// Check validates one path/timestamp/hash triple.
func (v *Verifier) Check(path, timestamp, hash string) error {
	if timestamp == "" || hash == "" {
		return ErrMissingHeaders
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}
	if skew := v.now().Unix() - ts; skew > int64(v.window/time.Second) || -skew > int64(v.window/time.Second) {
		return ErrBadTimestamp
	}
	want := Hash(timestamp, strings.TrimPrefix(path, v.strip), v.secret)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(hash))) != 1 {
		return ErrHashMismatch
	}
	return nil
}
