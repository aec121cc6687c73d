// Package pipeline signs outgoing panel API calls and classifies their failures.
package pipeline

import (
	"context"
	"net/http"
	"strings"

	"saha.org/internal/obs"
	"saha.org/internal/signer"
)

// TokenSource yields the current bearer token; an error means no token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Transport is an http.RoundTripper that signs API requests and attaches the
// bearer token. Requests outside APIBase pass through untouched.
type Transport struct {
	Base    http.RoundTripper
	APIBase string
	Signer  *signer.Signer
	Tokens  TokenSource
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.APIBase == "" || !strings.HasPrefix(req.URL.String(), t.APIBase) {
		return base.RoundTrip(req)
	}

	sig := t.Signer.Sign(t.Path(req))
	out := req.Clone(req.Context())
	out.Header.Set(signer.HeaderHash, sig.Hash)
	out.Header.Set(signer.HeaderTimestamp, sig.Timestamp)
	if t.Tokens != nil {
		if tok, err := t.Tokens.Token(req.Context()); err == nil && tok != "" {
			out.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	obs.SignedRequest()
	return base.RoundTrip(out)
}

// Path returns the signed path of req: its URL without query or fragment and
// with APIBase removed.
func (t *Transport) Path(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return strings.TrimPrefix(u.String(), t.APIBase)
}
