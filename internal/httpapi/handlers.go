package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"saha.org/internal/auth"
	"saha.org/internal/obs"
	"saha.org/internal/signer"
)

// Readiness checks that dependencies are reachable.
type Readiness struct {
	DB *sql.DB
}

func (rp Readiness) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tunes the limits of the API.
type Options struct {
	RateBurst      int
	RatePerSecond  int
	LoginAttempts  int
	LoginWindow    time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
	// Proxies whose X-Forwarded-For header names the client.
	TrustedProxies []netip.Prefix
}

func (o *Options) withDefaults() {
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 10
	}
	if o.LoginAttempts <= 0 {
		o.LoginAttempts = 5
	}
	if o.LoginWindow <= 0 {
		o.LoginWindow = time.Minute
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
}

// API is the HTTP layer of the panel backend.
type API struct {
	router     chi.Router
	auth       *auth.Service
	signatures *signer.Verifier
	readiness  Readiness
	validate   *validator.Validate
	version    string
	opts       Options
}

// New wires the routes. Every /api/ route requires a valid request signature.
func New(svc *auth.Service, signatures *signer.Verifier, rp Readiness, version string, opts Options) *API {
	opts.withDefaults()
	a := &API{
		auth:       svc,
		signatures: signatures,
		readiness:  rp,
		validate:   validator.New(),
		version:    version,
		opts:       opts,
	}

	r := chi.NewRouter()
	r.Use(RequestID, Logging, SecurityHeaders, CORS(opts.AllowedOrigins))
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, opts.MaxBodyBytes) })
	r.Use(func(next http.Handler) http.Handler {
		return RateLimit(next, opts.RateBurst, opts.RatePerSecond, opts.TrustedProxies...)
	})

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())

	loginLimiter := httprate.Limit(opts.LoginAttempts, opts.LoginWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientIP(r, opts.TrustedProxies), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, CodeTooManyAttempts)
		}),
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.withSignature)
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter)
			r.Post("/login", a.handleLogin)
			r.Post("/verify-code", a.handleVerifyCode)
		})
		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)
			r.Get("/user/verify", a.handleVerify)
			r.Get("/user/permissions", a.handlePermissions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed)
	})

	a.router = r
	return a
}

// Handler returns the root handler wrapped with metrics.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "saha-panel-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readiness.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "saha-panel-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message string `json:"message"`
}

// writeError renders {"error":{"message":CODE}}, the shape the panel client
// classifies.
func writeError(w http.ResponseWriter, r *http.Request, code int, errCode string) {
	payload := map[string]any{"error": errorBody{Message: errCode}}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
