package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saha.org/internal/auth"
	"saha.org/internal/httpapi"
	"saha.org/internal/permission"
	"saha.org/internal/session"
	"saha.org/internal/signer"
)

const (
	testSecret   = "app-secret"
	testPassword = "Parola123"
)

type chanSender struct{ codes chan string }

func (s chanSender) Send(_ context.Context, _ string, _ *auth.User, code string) error {
	s.codes <- code
	return nil
}

// chanReader feeds each received code as one stdin line.
type chanReader struct {
	codes <-chan string
	buf   []byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		select {
		case code := <-r.codes:
			r.buf = []byte(code + "\n")
		case <-time.After(5 * time.Second):
			return 0, io.EOF
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func startBackend(t *testing.T) chan string {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	store := auth.NewMemoryStore()
	store.PutUser(auth.User{ID: 5, UserTypeID: session.UserTypeAdmin, PermissionProfileID: 1, Firstname: "Mehmet", Lastname: "Kaya", Email: "mehmet@saha.org", PasswordHash: hash, Active: true, LoginEnabled: true})
	store.PutGrants(1, []permission.Grant{
		{Link: "admin", View: "DashboardComponent", ViewPermission: permission.ViewPermission{Active: true, Read: true}},
	})
	tokens, err := auth.NewTokens("jwt-secret", time.Hour)
	require.NoError(t, err)
	codes := make(chan string, 4)
	svc := auth.NewService(store, store, tokens, auth.NewCodeBook(time.Minute, nil), auth.WithSender(chanSender{codes}))
	verifier, err := signer.NewVerifier(testSecret)
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.New(svc, verifier, httpapi.Readiness{}, "test", httpapi.Options{}).Handler())
	t.Cleanup(srv.Close)

	t.Setenv("SAHA_API_BASE", srv.URL+"/api/")
	t.Setenv("SAHA_APP_SECRET", testSecret)
	t.Setenv("SAHA_TOKEN_STORE", "file")
	t.Setenv("SAHA_STATE_DIR", t.TempDir())
	t.Setenv("SAHA_ROUTES", "")
	return codes
}

func run(t *testing.T, stdin io.Reader, args ...string) (Response, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin == nil {
		stdin = bytes.NewReader(nil)
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(append([]string{"--format", "json", "--env-file", "testdata-missing.env"}, args...))
	err := cmd.ExecuteContext(context.Background())

	var resp Response
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	}
	return resp, err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"login", "logout", "verify", "whoami", "sign", "navigate", "routes"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "routes"})
	cmd.SetOut(io.Discard)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRoutesListsDefaults(t *testing.T) {
	t.Setenv("SAHA_ROUTES", "")
	resp, err := run(t, nil, "routes")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data)
}

func TestSignMatchesSigner(t *testing.T) {
	startBackend(t)
	resp, err := run(t, nil, "sign", "user/verify?x=1")
	require.NoError(t, err)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "user/verify", data["path"])
	ts := data[signer.HeaderTimestamp].(string)
	assert.Equal(t, signer.Hash(ts, "user/verify", testSecret), data[signer.HeaderHash])
}

func TestSignedPath(t *testing.T) {
	base := "https://panel.example/api/"
	p, err := signedPath(base, "https://panel.example/api/user/verify?next=1")
	require.NoError(t, err)
	assert.Equal(t, "user/verify", p)

	_, err = signedPath(base, "https://other.example/api/login")
	assert.Error(t, err)
}

func TestLoginSessionLifecycle(t *testing.T) {
	codes := startBackend(t)

	_, err := run(t, nil, "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitDenied, GetExitCode(err))

	resp, err := run(t, &chanReader{codes: codes}, "login", "-u", "mehmet@saha.org", "-p", testPassword)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "/admin", data["redirect"])

	resp, err = run(t, nil, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "5", resp.Data.(map[string]any)["subject"])
	assert.Equal(t, false, resp.Data.(map[string]any)["expired"])

	resp, err = run(t, nil, "verify")
	require.NoError(t, err)
	assert.Equal(t, "mehmet@saha.org", resp.Data.(map[string]any)["email"])

	resp, err = run(t, nil, "navigate", "/admin")
	require.NoError(t, err)
	assert.Equal(t, true, resp.Data.(map[string]any)["allowed"])

	resp, err = run(t, nil, "navigate", "/facility")
	require.NoError(t, err)
	assert.Equal(t, "/admin", resp.Data.(map[string]any)["redirect"])

	resp, err = run(t, nil, "navigate", "/reports")
	require.Error(t, err)
	assert.Equal(t, ExitDenied, GetExitCode(err))
	assert.Equal(t, "error", resp.Status)

	_, err = run(t, nil, "logout")
	require.NoError(t, err)

	_, err = run(t, nil, "verify")
	require.Error(t, err)
	assert.Equal(t, ExitDenied, GetExitCode(err))
}

func TestLoginWrongCodeFlag(t *testing.T) {
	codes := startBackend(t)
	_, err := run(t, nil, "login", "-u", "mehmet@saha.org", "-p", testPassword, "--code", "9999999")
	require.Error(t, err)
	assert.Equal(t, ExitDenied, GetExitCode(err))
	<-codes

	_, err = run(t, nil, "login", "-u", "yok@saha.org", "-p", testPassword)
	require.Error(t, err)
	assert.Equal(t, ExitDenied, GetExitCode(err))
	assert.Contains(t, err.Error(), "Email Adresi Bulunamadı!")
}
