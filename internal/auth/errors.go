package auth

import "errors"

var (
	ErrNotFound         = errors.New("auth: not found")
	ErrAlreadyExists    = errors.New("auth: already exists")
	ErrInvalidInput     = errors.New("auth: invalid input")
	ErrInvalidPassword  = errors.New("auth: invalid password")
	ErrUserDisabled     = errors.New("auth: user disabled")
	ErrLoginDisabled    = errors.New("auth: login disabled")
	ErrInvalidCode      = errors.New("auth: invalid verification code")
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrUnconfirmedToken = errors.New("auth: token awaiting code verification")
)
