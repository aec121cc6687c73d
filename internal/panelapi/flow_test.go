package panelapi

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"saha.org/internal/i18n"
	"saha.org/internal/pipeline"
	"saha.org/internal/signer"
)

func TestLoginFlowSuccess(t *testing.T) {
	sess := newSession()
	client, _ := newTestClient(t, sess)
	flow := NewLoginFlow(client, sess, i18n.New("tr"))
	ctx := context.Background()

	step, err := flow.Start(ctx, " ayse@saha.org ", "parola", MethodSMS)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if step.Stage != StageCode || step.Notice == nil || step.Notice.Message != "Kod gönderildi (sms)" {
		t.Fatalf("unexpected step %+v", step)
	}
	if _, err := sess.Token(ctx); err == nil {
		t.Fatal("token must stay pending until the code is confirmed")
	}

	step, err = flow.SubmitCode(ctx, strconv.Itoa(testCode))
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if step.Stage != StageDone || step.Redirect != "/admin" || step.Identity.ID != ayse.ID {
		t.Fatalf("unexpected step %+v", step)
	}
	if tok, _ := sess.Token(ctx); tok != testToken {
		t.Fatalf("token not persisted, got %q", tok)
	}
	if id, ok := sess.Identity(); !ok || id.Email != ayse.Email {
		t.Fatalf("identity not set: %+v", id)
	}
	if flow.Stage() != StageCredentials {
		t.Fatal("flow not reset after success")
	}

	if err := flow.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := sess.Token(ctx); err == nil {
		t.Fatal("logout kept the token")
	}
}

func TestLoginFlowRejectedCredentials(t *testing.T) {
	sess := newSession()
	client, _ := newTestClient(t, sess)
	flow := NewLoginFlow(client, sess, i18n.New("tr"))

	step, err := flow.Start(context.Background(), "ayse@saha.org", "yanlis", MethodEmail)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if step.Stage != StageCredentials || step.Notice.Message != "Parolanız Yanlış!" {
		t.Fatalf("unexpected step %+v", step)
	}

	if _, err := flow.Start(context.Background(), "", "x", MethodEmail); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if _, err := flow.SubmitCode(context.Background(), "1"); !errors.Is(err, ErrNoPendingLogin) {
		t.Fatalf("expected ErrNoPendingLogin, got %v", err)
	}
}

func TestLoginFlowThreeWrongCodesReset(t *testing.T) {
	sess := newSession()
	client, backend := newTestClient(t, sess)
	flow := NewLoginFlow(client, sess, i18n.New("tr"))
	ctx := context.Background()

	if _, err := flow.Start(ctx, "ayse@saha.org", "parola", MethodEmail); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for attempt := 1; attempt <= 2; attempt++ {
		step, err := flow.SubmitCode(ctx, "111111")
		if err != nil {
			t.Fatalf("SubmitCode: %v", err)
		}
		if step.Stage != StageCode || step.Attempts != attempt {
			t.Fatalf("attempt %d: unexpected step %+v", attempt, step)
		}
		if step.Notice.Message != "INVALID_CODE" {
			t.Fatalf("unknown backend codes pass through, got %q", step.Notice.Message)
		}
	}

	// Non-numeric input counts without reaching the backend.
	step, err := flow.SubmitCode(ctx, "abc")
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if step.Stage != StageCredentials || step.Redirect != "/" {
		t.Fatalf("expected reset, got %+v", step)
	}
	if step.Notice.Message != "Doğrulama Kodunu 3 Kere Yanlış Girdiniz!" {
		t.Fatalf("unexpected notice %q", step.Notice.Message)
	}
	if n := backend.codeCalls.Load(); n != 2 {
		t.Fatalf("expected 2 backend calls, got %d", n)
	}
	if flow.Stage() != StageCredentials {
		t.Fatal("pending login survived the reset")
	}
	if _, err := sess.Token(ctx); err == nil {
		t.Fatal("token stored after failed verification")
	}
}

func TestLoginFlowNetworkFailureDoesNotCount(t *testing.T) {
	sess := newSession()
	client, _ := newTestClient(t, sess)
	flow := NewLoginFlow(client, sess, i18n.New("en"))
	ctx := context.Background()
	if _, err := flow.Start(ctx, "ayse@saha.org", "parola", MethodEmail); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sg, _ := signer.New(testSecret)
	offline := New(pipeline.NewClient(&pipeline.Transport{
		APIBase: "http://127.0.0.1:1/api/",
		Signer:  sg,
	}, pipeline.Classifier{Printer: i18n.New("en")}, time.Second))
	flow.client = offline

	step, err := flow.SubmitCode(ctx, strconv.Itoa(testCode))
	var perr *pipeline.Error
	if !errors.As(err, &perr) || perr.Kind != pipeline.KindNetworkUnreachable {
		t.Fatalf("expected network error, got %v", err)
	}
	if step.Stage != StageCode || step.Attempts != 0 {
		t.Fatalf("network failure consumed an attempt: %+v", step)
	}
	if step.Notice.Message != "You have no internet connection" {
		t.Fatalf("unexpected notice %q", step.Notice.Message)
	}
}

func TestLoginFlowSendsPasswordVerbatim(t *testing.T) {
	sess := newSession()
	client, _ := newTestClient(t, sess)
	flow := NewLoginFlow(client, sess, i18n.New("tr"))

	step, err := flow.Start(context.Background(), "ayse@saha.org", " parola ", MethodEmail)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if step.Stage != StageCredentials || step.Notice == nil || step.Notice.Message != "Parolanız Yanlış!" {
		t.Fatalf("padded password must reach the backend unchanged, got %+v", step)
	}

	if _, err := flow.Start(context.Background(), "ayse@saha.org", "", MethodEmail); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}
