package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"saha.org/internal/audit"
	"saha.org/internal/auth"
	"saha.org/internal/permission"
	"saha.org/internal/session"
)

type loginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required,max=254"`
	Password     string `json:"password" validate:"required,max=128"`
	VerifyMethod string `json:"verify_method" validate:"omitempty,oneof=sms email"`
}

type verifyCodeRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required,max=254"`
	Code         int    `json:"code" validate:"gte=0,lte=999999"`
}

type userData struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token,omitempty"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      userData  `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type verifyResponse struct {
	Success bool     `json:"success"`
	Data    userData `json:"data"`
}

type permissionsResponse struct {
	Success bool               `json:"success"`
	Data    []permission.Grant `json:"data"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	req.EmailOrPhone = trimmed(req.EmailOrPhone)
	if req.VerifyMethod == "" {
		req.VerifyMethod = "email"
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, CodeInvalidInput)
		return
	}

	res, err := a.auth.Login(r.Context(), req.EmailOrPhone, req.Password, req.VerifyMethod)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"reason": err.Error()})
		handleAuthError(w, r, err)
		return
	}

	ctx := audit.WithActor(r.Context(), strconv.FormatInt(res.User.ID, 10))
	_ = audit.LogEvent(ctx, "auth.login.code_sent", map[string]any{"method": req.VerifyMethod})

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   codeSentMessage(req.VerifyMethod),
		Data:      userData{User: res.User.Identity(), Token: res.Token},
		ExpiresAt: res.ExpiresAt,
	})
}

func (a *API) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidRequest)
		return
	}
	req.EmailOrPhone = trimmed(req.EmailOrPhone)
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, CodeInvalidCode)
		return
	}

	user, err := a.auth.VerifyCode(r.Context(), req.EmailOrPhone, req.Code)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	ctx := audit.WithActor(r.Context(), strconv.FormatInt(user.ID, 10))
	_ = audit.LogEvent(ctx, "auth.login.confirmed", nil)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Giriş Başarılı"})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, CodeInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, Data: userData{User: user.Identity()}})
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, CodeInvalidToken)
		return
	}
	grants, err := a.auth.Permissions(r.Context(), user)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if grants == nil {
		grants = []permission.Grant{}
	}
	writeJSON(w, http.StatusOK, permissionsResponse{Success: true, Data: grants})
}

func codeSentMessage(method string) string {
	if method == "sms" {
		return "Doğrulama Kodu Sms Olarak Gönderildi"
	}
	return "Doğrulama Kodu Email Olarak Gönderildi"
}
