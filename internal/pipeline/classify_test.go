package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"saha.org/internal/i18n"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestClassifyResponse(t *testing.T) {
	c := Classifier{Printer: i18n.New("tr")}

	cases := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		code    string
		message string
	}{
		{name: "unauthorized", status: 401, body: `{"success":false,"message":"Invalid request"}`, kind: KindUnauthorized, message: "Yetkiniz Yok!"},
		{name: "unauthorized structured", status: 401, body: `{"error":{"message":"EMAIL_NOT_FOUND"}}`, kind: KindUnauthorized, message: "Yetkiniz Yok!"},
		{name: "email exists", status: 400, body: `{"error":{"message":"EMAIL_EXISTS"}}`, kind: KindKnownBackend, code: CodeEmailExists, message: "Email Adresi Zaten Kayıtlı!"},
		{name: "email not found", status: 400, body: `{"error":{"message":"EMAIL_NOT_FOUND"}}`, kind: KindKnownBackend, code: CodeEmailNotFound, message: "Email Adresi Bulunamadı!"},
		{name: "invalid password", status: 400, body: `{"error":{"message":"INVALID_PASSWORD"}}`, kind: KindKnownBackend, code: CodeInvalidPassword, message: "Parolanız Yanlış!"},
		{name: "user disabled", status: 403, body: `{"error":{"message":"USER_DISABLED"}}`, kind: KindKnownBackend, code: CodeUserDisabled, message: "Kullanıcı Aktif Değil!"},
		{name: "operation not allowed", status: 403, body: `{"error":{"message":"OPERATION_NOT_ALLOWED"}}`, kind: KindKnownBackend, code: CodeOperationNotAllowed, message: "Kullanıcı Girişi Kapalı!"},
		{name: "too many attempts", status: 429, body: `{"error":{"message":"TOO_MANY_ATTEMPTS_TRY_LATER"}}`, kind: KindKnownBackend, code: CodeTooManyAttempts, message: "Bu Cihaz ile Girişler Kapatıldı!"},
		{name: "unknown code passes through", status: 422, body: `{"error":{"message":"PHONE_INVALID"}}`, kind: KindUnknownBackend, code: "PHONE_INVALID", message: "PHONE_INVALID"},
		{name: "plain error", status: 500, body: `internal`, kind: KindFailure, message: "Hata Oluştu!"},
		{name: "empty structured", status: 500, body: `{"error":{}}`, kind: KindFailure, message: "Hata Oluştu!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Response(response(tc.status, tc.body))
			if got.Kind != tc.kind || got.Code != tc.code || got.Message != tc.message || got.Status != tc.status {
				t.Fatalf("Response() = %+v", got)
			}
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	c := Classifier{Printer: i18n.New("en")}

	offlineErrs := []error{
		&net.DNSError{Err: "no such host", Name: "panel.invalid"},
		fmt.Errorf("dial: %w", syscall.ECONNREFUSED),
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("i/o timeout")},
	}
	for _, err := range offlineErrs {
		got := c.Transport(err)
		if got.Kind != KindNetworkUnreachable || got.Message != "You have no internet connection" {
			t.Fatalf("Transport(%v) = %+v", err, got)
		}
		if !errors.Is(got, err) {
			t.Fatalf("cause not wrapped for %v", err)
		}
	}

	got := c.Transport(context.Canceled)
	if got.Kind != KindFailure || got.Message != "An error occurred!" {
		t.Fatalf("Transport(canceled) = %+v", got)
	}

	again := c.Transport(got)
	if again != got {
		t.Fatal("already classified errors must be returned as is")
	}
}

func TestClientClassifiesRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api/"
	srv.Close()

	tr := &Transport{APIBase: base, Signer: newSigner(t)}
	client := NewClient(tr, Classifier{Printer: i18n.New("tr")}, time.Second)

	err := client.GetJSON(context.Background(), "user/verify", nil)
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if perr.Kind != KindNetworkUnreachable || perr.Message != "İnternet bağlantınız yok" {
		t.Fatalf("unexpected classification %+v", perr)
	}
}

func TestClientScenarioEmailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"EMAIL_NOT_FOUND"}}`)
	}))
	defer srv.Close()

	tr := &Transport{APIBase: srv.URL + "/api/", Signer: newSigner(t)}
	client := NewClient(tr, Classifier{Printer: i18n.New("tr")}, time.Second)

	var out map[string]any
	err := client.PostJSON(context.Background(), "login", map[string]string{"email_or_phone": "x"}, &out)
	if err == nil || err.Error() != "Email Adresi Bulunamadı!" {
		t.Fatalf("unexpected error %v", err)
	}
	if strings.Contains(err.Error(), "EMAIL_NOT_FOUND") {
		t.Fatal("raw code leaked to the user")
	}
}

func TestClientDecodesSuccess(t *testing.T) {
	var gotHash string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHash = r.Header.Get("Hash")
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	tr := &Transport{APIBase: srv.URL + "/api/", Signer: newSigner(t)}
	client := NewClient(tr, Classifier{}, time.Second)

	var out struct {
		Success bool `json:"success"`
	}
	if err := client.GetJSON(context.Background(), "/user/verify", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.Success || gotHash == "" {
		t.Fatalf("unexpected result success=%v hash=%q", out.Success, gotHash)
	}
}
