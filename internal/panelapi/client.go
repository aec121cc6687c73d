// Package panelapi is the typed client of the panel backend's authentication
// endpoints. All calls go through the signing pipeline.
package panelapi

import (
	"context"
	"strings"

	"saha.org/internal/guard"
	"saha.org/internal/permission"
	"saha.org/internal/pipeline"
	"saha.org/internal/session"
)

// Endpoint paths relative to the API base.
const (
	PathVerify      = "user/verify"
	PathLogin       = "login"
	PathVerifyCode  = "verify-code"
	PathPermissions = "user/permissions"
)

// VerifyMethod selects how the login verification code is delivered.
type VerifyMethod string

const (
	MethodSMS   VerifyMethod = "sms"
	MethodEmail VerifyMethod = "email"
)

// ParseVerifyMethod accepts "sms" or "email"; anything else falls back to email.
func ParseVerifyMethod(s string) VerifyMethod {
	if strings.EqualFold(strings.TrimSpace(s), string(MethodSMS)) {
		return MethodSMS
	}
	return MethodEmail
}

// UserData is the common payload of verify and login responses.
type UserData struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token,omitempty"`
}

// VerifyResponse is returned by GET user/verify.
type VerifyResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    UserData `json:"data"`
}

// LoginResponse is returned by POST login.
type LoginResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    UserData `json:"data"`
}

// CodeResponse is returned by POST verify-code.
type CodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PermissionsResponse is returned by GET user/permissions.
type PermissionsResponse struct {
	Success bool               `json:"success"`
	Data    []permission.Grant `json:"data"`
}

type loginRequest struct {
	EmailOrPhone string       `json:"email_or_phone"`
	Password     string       `json:"password"`
	VerifyMethod VerifyMethod `json:"verify_method"`
}

type codeRequest struct {
	EmailOrPhone string `json:"email_or_phone"`
	Code         int    `json:"code"`
}

// Client calls the panel backend. Errors are *pipeline.Error.
type Client struct {
	api *pipeline.Client
}

func New(api *pipeline.Client) *Client { return &Client{api: api} }

// Verify checks the stored bearer token.
func (c *Client) Verify(ctx context.Context) (VerifyResponse, error) {
	var out VerifyResponse
	err := c.api.GetJSON(ctx, PathVerify, &out)
	return out, err
}

// Login submits credentials. On success the backend sends a verification
// code and returns the token that becomes valid once the code is confirmed.
func (c *Client) Login(ctx context.Context, emailOrPhone, password string, method VerifyMethod) (LoginResponse, error) {
	var out LoginResponse
	err := c.api.PostJSON(ctx, PathLogin, loginRequest{
		EmailOrPhone: strings.TrimSpace(emailOrPhone),
		Password:     password,
		VerifyMethod: method,
	}, &out)
	return out, err
}

// VerifyCode confirms the verification code sent after Login.
func (c *Client) VerifyCode(ctx context.Context, emailOrPhone string, code int) (CodeResponse, error) {
	var out CodeResponse
	err := c.api.PostJSON(ctx, PathVerifyCode, codeRequest{
		EmailOrPhone: strings.TrimSpace(emailOrPhone),
		Code:         code,
	}, &out)
	return out, err
}

// Permissions returns the grant list of the current identity.
func (c *Client) Permissions(ctx context.Context) ([]permission.Grant, error) {
	var out PermissionsResponse
	if err := c.api.GetJSON(ctx, PathPermissions, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Grants implements permission.Source.
func (c *Client) Grants(ctx context.Context) ([]permission.Grant, error) {
	return c.Permissions(ctx)
}

// Verifier adapts the client to guard.Verifier.
func (c *Client) Verifier() guard.Verifier { return verifier{c} }

type verifier struct{ c *Client }

func (v verifier) Verify(ctx context.Context) (guard.Verification, error) {
	resp, err := v.c.Verify(ctx)
	if err != nil {
		return guard.Verification{}, err
	}
	return guard.Verification{Success: resp.Success, Identity: resp.Data.User, Token: resp.Data.Token}, nil
}
