package guard

import (
	"context"
	"sync"

	"saha.org/internal/audit"
	"saha.org/internal/i18n"
	"saha.org/internal/ids"
	"saha.org/internal/obs"
	"saha.org/internal/session"
)

// Decision is the outcome of one navigation.
type Decision struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Allowed  bool     `json:"allowed"`
	Redirect string   `json:"redirect,omitempty"`
	Notices  []Notice `json:"notices,omitempty"`
	State    State    `json:"state"`
}

// Navigator runs the guard chain of the matched route. Only one navigation is
// in flight at a time: starting a new one cancels the previous one, whose
// guards then return without touching the session.
type Navigator struct {
	routes     *RouteTable
	app        *SessionGuard
	login      *SessionGuard
	permission *PermissionGuard
	printer    i18n.Printer
	notifier   Notifier

	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithPrinter sets the notice language.
func WithPrinter(p i18n.Printer) NavigatorOption {
	return func(n *Navigator) { n.printer = p }
}

// WithNotifier sets where notices of completed navigations are delivered.
func WithNotifier(notifier Notifier) NavigatorOption {
	return func(n *Navigator) { n.notifier = notifier }
}

// invalidator is implemented by resolvers that cache per identity.
type invalidator interface{ Invalidate() }

// NewNavigator wires the guards over one session.
func NewNavigator(routes *RouteTable, sess *session.Session, verifier Verifier, perms PermissionResolver, opts ...NavigatorOption) *Navigator {
	n := &Navigator{routes: routes, printer: i18n.New("")}
	for _, opt := range opts {
		opt(n)
	}
	n.app = &SessionGuard{Session: sess, Verifier: verifier, Printer: n.printer, Mode: ModeApp}
	n.login = &SessionGuard{Session: sess, Verifier: verifier, Printer: n.printer, Mode: ModeLogin}
	n.permission = &PermissionGuard{Session: sess, Permissions: perms, Printer: n.printer}
	if inv, ok := perms.(invalidator); ok {
		sess.OnChange(inv.Invalidate)
	}
	return n
}

// Navigate decides whether rawURL may be entered.
func (n *Navigator) Navigate(ctx context.Context, rawURL string) Decision {
	id := ids.Navigation()
	navCtx, cancel := context.WithCancel(ctx)

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.current, n.cancel = id, cancel
	n.mu.Unlock()
	defer n.finish(id, cancel)

	navCtx = audit.WithNavigation(navCtx, id)
	d := n.run(navCtx, id, rawURL)
	if navCtx.Err() != nil {
		d = Decision{ID: id, URL: rawURL, State: StateSuperseded}
	}

	obs.GuardDecision("navigator", string(d.State))
	if d.State == StateSuperseded {
		return d
	}
	if !d.Allowed {
		_ = audit.LogEvent(navCtx, "navigation.denied", map[string]any{"url": rawURL, "state": string(d.State)})
	}
	if n.notifier != nil {
		for _, notice := range d.Notices {
			n.notifier.Notify(notice)
		}
	}
	return d
}

// Cancel aborts the in-flight navigation, if any.
func (n *Navigator) Cancel() {
	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.mu.Unlock()
}

func (n *Navigator) finish(id string, cancel context.CancelFunc) {
	n.mu.Lock()
	if n.current == id {
		n.current, n.cancel = "", nil
	}
	n.mu.Unlock()
	cancel()
}

func (n *Navigator) run(ctx context.Context, id, rawURL string) Decision {
	d := Decision{ID: id, URL: rawURL, State: StateUnchecked}
	route, ok := n.routes.Match(rawURL)
	if !ok {
		d.State = StateNotFound
		d.Notices = []Notice{{Level: LevelError, Message: n.printer.Text(i18n.PageNotFound)}}
		return d
	}

	d.Allowed = true
	d.State = StateAllowed
	for _, name := range route.Guards {
		var res Result
		switch name {
		case GuardSession:
			res = n.app.Check(ctx, rawURL)
		case GuardLogin:
			res = n.login.Check(ctx, rawURL)
		case GuardPermission:
			res = n.permission.Check(ctx, rawURL, route.View)
		}
		d.State = res.State
		if res.State == StateSuperseded {
			d.Allowed = false
			return d
		}
		if res.Notice != nil {
			d.Notices = append(d.Notices, *res.Notice)
		}
		d.Redirect = res.Redirect
		if !res.Allowed {
			d.Allowed = false
			return d
		}
		// A redirect ends the chain; the target is guarded by its own navigation.
		if res.Redirect != "" {
			return d
		}
	}
	return d
}
