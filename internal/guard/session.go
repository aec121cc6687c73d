package guard

import (
	"context"
	"strconv"

	"saha.org/internal/audit"
	"saha.org/internal/i18n"
	"saha.org/internal/obs"
	"saha.org/internal/session"
)

// Mode selects the behaviour of a SessionGuard after a successful verification.
type Mode int

const (
	// ModeApp steers users into the section matching their user type.
	ModeApp Mode = iota
	// ModeLogin only verifies.
	ModeLogin
)

func (m Mode) String() string {
	if m == ModeLogin {
		return "login"
	}
	return "session"
}

// SessionGuard verifies the stored token with the backend before a
// navigation proceeds.
type SessionGuard struct {
	Session  *session.Session
	Verifier Verifier
	Printer  i18n.Printer
	Mode     Mode
}

// Check runs the guard for the navigation target rawURL.
func (g *SessionGuard) Check(ctx context.Context, rawURL string) Result {
	res := g.check(ctx, rawURL)
	obs.GuardDecision(g.Mode.String(), string(res.State))
	return res
}

func (g *SessionGuard) check(ctx context.Context, rawURL string) Result {
	if g.Session.Expired(ctx) {
		return expire(ctx, g.Session, g.Printer)
	}

	v, err := g.Verifier.Verify(ctx)
	if ctx.Err() != nil {
		return Result{State: StateSuperseded}
	}
	if err != nil || !v.Success {
		fields := map[string]any{"url": rawURL}
		if err != nil {
			fields["error"] = err.Error()
		}
		obs.Warn("token_verification_failed", fields)
		endSession(ctx, g.Session, "invalid_token")
		return deny(StateDenied, "/", LevelError, g.Printer.Text(i18n.InvalidToken))
	}

	if v.Token != "" {
		if err := g.Session.Begin(ctx, v.Token, v.Identity); err != nil {
			obs.Error("token_refresh_store_failed", map[string]any{"error": err.Error()})
		}
	} else {
		g.Session.SetIdentity(v.Identity)
	}

	res := Result{State: StateVerified, Allowed: true}
	if g.Mode == ModeApp {
		g.steer(&res, rawURL, v.Identity)
	}
	return res
}

// steer redirects users outside the section of their user type. The
// navigation stays allowed.
func (g *SessionGuard) steer(res *Result, rawURL string, id session.Identity) {
	segment := Segment(rawURL)
	section := id.Section()
	if segment == "" || section == "" || segment == section {
		return
	}
	key := i18n.FacilityModuleRestricted
	if section == session.SectionFacility {
		key = i18n.AdminModuleRestricted
	}
	res.Redirect = "/" + section
	res.Notice = &Notice{Level: LevelWarning, Message: g.Printer.Text(key)}
}

func expire(ctx context.Context, s *session.Session, p i18n.Printer) Result {
	endSession(ctx, s, "expired")
	return deny(StateExpired, "/", LevelError, p.Text(i18n.SessionExpired))
}

func endSession(ctx context.Context, s *session.Session, reason string) {
	fields := map[string]any{"reason": reason}
	if id, ok := s.Identity(); ok {
		fields["user_id"] = strconv.FormatInt(id.ID, 10)
	}
	if err := s.End(ctx); err != nil {
		fields["error"] = err.Error()
		obs.Error("session_end_failed", fields)
	}
	_ = audit.LogEvent(ctx, "session.token_cleared", fields)
}
