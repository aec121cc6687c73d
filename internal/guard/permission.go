package guard

import (
	"context"

	"saha.org/internal/i18n"
	"saha.org/internal/obs"
	"saha.org/internal/session"
)

// DashboardView is the view whose read-restricted fallback is the root route.
const DashboardView = "DashboardComponent"

// PermissionGuard authorizes a view against the grant table.
type PermissionGuard struct {
	Session     *session.Session
	Permissions PermissionResolver
	Printer     i18n.Printer
}

// Check authorizes view for the navigation target rawURL.
func (g *PermissionGuard) Check(ctx context.Context, rawURL, view string) Result {
	res := g.check(ctx, rawURL, view)
	obs.GuardDecision("permission", string(res.State))
	return res
}

func (g *PermissionGuard) check(ctx context.Context, rawURL, view string) Result {
	if g.Session.Expired(ctx) {
		return expire(ctx, g.Session, g.Printer)
	}
	if view == "" {
		return deny(StateNotFound, "", LevelError, g.Printer.Text(i18n.PageNotFound))
	}

	segment := Segment(rawURL)
	perm := g.Permissions.Resolve(ctx, segment, view)
	if ctx.Err() != nil {
		return Result{State: StateSuperseded}
	}

	if !perm.Active {
		return deny(StateDisabled, "", LevelError, g.Printer.Text(i18n.PageDisabled, view))
	}
	if !perm.Read {
		redirect := "/" + segment
		if view == DashboardView {
			redirect = "/"
		}
		return Result{
			State:    StateRestricted,
			Allowed:  true,
			Redirect: redirect,
			Notice:   &Notice{Level: LevelWarning, Message: g.Printer.Text(i18n.NoViewPermission, view)},
		}
	}
	return Result{State: StateAllowed, Allowed: true}
}
