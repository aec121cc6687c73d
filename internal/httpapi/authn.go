package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"saha.org/internal/audit"
	"saha.org/internal/auth"
	"saha.org/internal/obs"
	"saha.org/internal/signer"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withSignature rejects requests whose Hash/Timestamp headers do not match
// the request path.
func (a *API) withSignature(next http.Handler) http.Handler {
	if a == nil || a.signatures == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || a.signatures.Skips(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if err := a.signatures.Verify(r); err != nil {
			obs.SignatureRejected(rejectionReason(err))
			obs.Warn("signature_rejected", map[string]any{
				"path":       r.URL.Path,
				"error":      err.Error(),
				"request_id": RequestIDFromContext(r.Context()),
			})
			writeError(w, r, http.StatusUnauthorized, CodeInvalidRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, signer.ErrMissingHeaders):
		return "missing_headers"
	case errors.Is(err, signer.ErrBadTimestamp):
		return "stale_timestamp"
	case errors.Is(err, signer.ErrHashMismatch):
		return "hash_mismatch"
	default:
		return "other"
	}
}

// withAuth resolves the bearer token to a confirmed, active user.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, CodeInvalidToken)
			return
		}

		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUserDisabled) {
				writeError(w, r, http.StatusUnauthorized, CodeUserDisabled)
				return
			}
			handleAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = audit.WithActor(ctx, strconv.FormatInt(user.ID, 10))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
