package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"saha.org/internal/permission"
)

// LoginResult is returned by a successful password check.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Service implements login with code confirmation and bearer authentication.
type Service struct {
	users  UserStore
	grants GrantStore
	tokens *Tokens
	codes  *CodeBook
	sender Sender
	now    func() time.Time

	mu        sync.Mutex
	confirmed map[string]time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithSender overrides how verification codes are delivered.
func WithSender(s Sender) ServiceOption {
	return func(svc *Service) {
		if s != nil {
			svc.sender = s
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(svc *Service) {
		if fn != nil {
			svc.now = fn
		}
	}
}

// NewService constructs Service.
func NewService(users UserStore, grants GrantStore, tokens *Tokens, codes *CodeBook, opts ...ServiceOption) *Service {
	svc := &Service{
		users:     users,
		grants:    grants,
		tokens:    tokens,
		codes:     codes,
		sender:    LogSender{},
		now:       time.Now,
		confirmed: map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login checks credentials, issues a token and sends a verification code.
// The token authenticates only after VerifyCode succeeds.
func (s *Service) Login(ctx context.Context, emailOrPhone, password, method string) (LoginResult, error) {
	if strings.TrimSpace(emailOrPhone) == "" || password == "" {
		return LoginResult{}, ErrInvalidInput
	}
	user, err := s.users.FindByLogin(ctx, emailOrPhone)
	if err != nil {
		return LoginResult{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidPassword
	}
	if !user.Active {
		return LoginResult{}, ErrUserDisabled
	}
	if !user.LoginEnabled {
		return LoginResult{}, ErrLoginDisabled
	}

	token, jti, exp, err := s.tokens.Generate(user)
	if err != nil {
		return LoginResult{}, err
	}
	code, err := s.codes.Issue(emailOrPhone, user.ID, jti)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.sender.Send(ctx, method, user, code); err != nil {
		return LoginResult{}, fmt.Errorf("send code: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// VerifyCode confirms the code sent by Login and activates its token.
func (s *Service) VerifyCode(ctx context.Context, emailOrPhone string, code int) (*User, error) {
	userID, jti, err := s.codes.Redeem(emailOrPhone, code)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.confirmed[jti] = s.now().Add(s.tokens.ttl)
	s.pruneLocked()
	s.mu.Unlock()
	if err := s.users.TouchLogin(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a confirmed bearer token to its active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	_, ok := s.confirmed[claims.ID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnconfirmedToken
	}
	id, _ := claims.UserID()
	user, err := s.users.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// Permissions returns the grants of the user's permission profile.
func (s *Service) Permissions(ctx context.Context, user *User) ([]permission.Grant, error) {
	if user.PermissionProfileID == 0 {
		return nil, nil
	}
	return s.grants.GrantsForProfile(ctx, user.PermissionProfileID)
}

func (s *Service) pruneLocked() {
	now := s.now()
	for jti, exp := range s.confirmed {
		if !now.Before(exp) {
			delete(s.confirmed, jti)
		}
	}
}
