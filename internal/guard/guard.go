// Package guard decides whether a navigation may proceed. SessionGuard checks
// the stored credential against the backend, PermissionGuard checks the view
// grant, and Navigator runs a route's guards for one navigation at a time.
package guard

import (
	"context"
	"net/url"
	"strings"

	"saha.org/internal/permission"
	"saha.org/internal/session"
)

// State is the outcome of a guard run.
type State string

const (
	StateUnchecked  State = "unchecked"
	StateExpired    State = "expired"
	StateVerifying  State = "verifying"
	StateVerified   State = "verified"
	StateDenied     State = "denied"
	StateSuperseded State = "superseded"
	StateNotFound   State = "not_found"
	StateDisabled   State = "disabled"
	StateRestricted State = "restricted"
	StateAllowed    State = "allowed"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a user-facing message produced by a guard.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives the notices of completed navigations.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Result is what a single guard decided.
type Result struct {
	State    State
	Allowed  bool
	Redirect string
	Notice   *Notice
}

// Verification is the backend's answer to a token verification call.
type Verification struct {
	Success  bool
	Identity session.Identity
	// Token replaces the stored token when non-empty.
	Token string
}

// Verifier performs the remote token verification.
type Verifier interface {
	Verify(ctx context.Context) (Verification, error)
}

// PermissionResolver resolves the grant for a module link and view.
type PermissionResolver interface {
	Resolve(ctx context.Context, link, view string) permission.ViewPermission
}

// Segment returns the first path segment of a navigation URL.
func Segment(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	p = strings.TrimLeft(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

func deny(state State, redirect string, level Level, msg string) Result {
	return Result{State: state, Redirect: redirect, Notice: &Notice{Level: level, Message: msg}}
}
