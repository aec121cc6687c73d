package panelapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"saha.org/internal/audit"
	"saha.org/internal/guard"
	"saha.org/internal/i18n"
	"saha.org/internal/obs"
	"saha.org/internal/pipeline"
	"saha.org/internal/session"
)

// MaxCodeAttempts is the number of wrong codes after which a login starts over.
const MaxCodeAttempts = 3

var (
	ErrNoPendingLogin = errors.New("no login awaiting a verification code")
	ErrMissingInput   = errors.New("email or phone and password are required")
)

// Stage is where a LoginFlow stands.
type Stage string

const (
	StageCredentials Stage = "credentials"
	StageCode        Stage = "code"
	StageDone        Stage = "done"
)

// Step reports the outcome of one LoginFlow action.
type Step struct {
	Stage    Stage
	Notice   *guard.Notice
	Identity session.Identity
	Redirect string
	Attempts int
}

type pendingLogin struct {
	emailOrPhone string
	token        string
	identity     session.Identity
}

// LoginFlow drives login followed by code verification. The token returned by
// login is held back until the code is confirmed, then written to the session.
type LoginFlow struct {
	client  *Client
	session *session.Session
	printer i18n.Printer

	mu       sync.Mutex
	pending  *pendingLogin
	failures int
}

// NewLoginFlow returns a flow that stores the confirmed credential in sess.
func NewLoginFlow(client *Client, sess *session.Session, printer i18n.Printer) *LoginFlow {
	return &LoginFlow{client: client, session: sess, printer: printer}
}

// Stage reports whether the flow is waiting for credentials or a code.
func (f *LoginFlow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		return StageCode
	}
	return StageCredentials
}

// Start submits credentials. Transport failures are returned as *pipeline.Error.
func (f *LoginFlow) Start(ctx context.Context, emailOrPhone, password string, method VerifyMethod) (Step, error) {
	emailOrPhone = strings.TrimSpace(emailOrPhone)
	if emailOrPhone == "" || password == "" {
		return Step{Stage: StageCredentials}, ErrMissingInput
	}

	resp, err := f.client.Login(ctx, emailOrPhone, password, method)
	if err != nil {
		return Step{Stage: StageCredentials, Notice: errorNotice(err)}, err
	}
	if !resp.Success {
		return Step{Stage: StageCredentials, Notice: &guard.Notice{Level: guard.LevelError, Message: f.message(resp.Message)}}, nil
	}

	f.mu.Lock()
	f.pending = &pendingLogin{emailOrPhone: emailOrPhone, token: resp.Data.Token, identity: resp.Data.User}
	f.failures = 0
	f.mu.Unlock()

	msg := resp.Message
	if msg == "" {
		msg = f.printer.Text(i18n.CodeSent)
	}
	obs.Info("login_code_requested", map[string]any{"method": string(method)})
	return Step{Stage: StageCode, Notice: &guard.Notice{Level: guard.LevelInfo, Message: msg}}, nil
}

// SubmitCode confirms the verification code. A rejected code counts as one
// attempt; the third rejection discards the pending login.
func (f *LoginFlow) SubmitCode(ctx context.Context, code string) (Step, error) {
	f.mu.Lock()
	pending := f.pending
	f.mu.Unlock()
	if pending == nil {
		return Step{Stage: StageCredentials}, ErrNoPendingLogin
	}

	var (
		resp CodeResponse
		err  error
	)
	n, convErr := strconv.Atoi(strings.TrimSpace(code))
	if convErr == nil {
		resp, err = f.client.VerifyCode(ctx, pending.emailOrPhone, n)
	}

	var perr *pipeline.Error
	if err != nil && (!errors.As(err, &perr) || perr.Kind == pipeline.KindNetworkUnreachable) {
		// The backend never judged the code; the attempt does not count.
		return Step{Stage: StageCode, Notice: errorNotice(err), Attempts: f.attempts()}, err
	}

	if convErr == nil && err == nil && resp.Success {
		return f.complete(ctx, pending)
	}

	msg := f.message(resp.Message)
	if perr != nil {
		msg = perr.Message
	}
	return f.reject(msg), nil
}

// Reset abandons a pending login.
func (f *LoginFlow) Reset() {
	f.mu.Lock()
	f.pending = nil
	f.failures = 0
	f.mu.Unlock()
}

// Logout ends the session and abandons any pending login.
func (f *LoginFlow) Logout(ctx context.Context) error {
	f.Reset()
	fields := map[string]any{}
	if id, ok := f.session.Identity(); ok {
		ctx = audit.WithActor(ctx, strconv.FormatInt(id.ID, 10))
	}
	if err := f.session.End(ctx); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "session.logout", fields)
	return nil
}

func (f *LoginFlow) complete(ctx context.Context, pending *pendingLogin) (Step, error) {
	if err := f.session.Begin(ctx, pending.token, pending.identity); err != nil {
		return Step{Stage: StageCode, Notice: &guard.Notice{Level: guard.LevelError, Message: f.printer.Text(i18n.GenericFailure)}}, err
	}
	f.Reset()

	actorCtx := audit.WithActor(ctx, strconv.FormatInt(pending.identity.ID, 10))
	_ = audit.LogEvent(actorCtx, "session.login", map[string]any{"user_type_id": pending.identity.UserTypeID})

	step := Step{
		Stage:    StageDone,
		Identity: pending.identity,
		Notice:   &guard.Notice{Level: guard.LevelInfo, Message: f.printer.Text(i18n.LoginSucceeded)},
	}
	if section := pending.identity.Section(); section != "" {
		step.Redirect = "/" + section
	}
	return step, nil
}

func (f *LoginFlow) reject(msg string) Step {
	f.mu.Lock()
	f.failures++
	failures := f.failures
	exhausted := failures >= MaxCodeAttempts
	if exhausted {
		f.pending = nil
		f.failures = 0
	}
	f.mu.Unlock()

	if exhausted {
		obs.Warn("login_code_attempts_exceeded", map[string]any{"attempts": failures})
		return Step{
			Stage:    StageCredentials,
			Redirect: "/",
			Attempts: failures,
			Notice:   &guard.Notice{Level: guard.LevelError, Message: f.printer.Text(i18n.CodeAttemptsExceeded)},
		}
	}
	return Step{Stage: StageCode, Attempts: failures, Notice: &guard.Notice{Level: guard.LevelError, Message: msg}}
}

func (f *LoginFlow) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

func (f *LoginFlow) message(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return f.printer.Text(i18n.GenericFailure)
	}
	return msg
}

func errorNotice(err error) *guard.Notice {
	return &guard.Notice{Level: guard.LevelError, Message: err.Error()}
}
