package pipeline

import "fmt"

// Kind classifies a failed API call.
type Kind string

const (
	KindNetworkUnreachable Kind = "network_unreachable"
	KindUnauthorized       Kind = "unauthorized"
	KindKnownBackend       Kind = "known_backend_error"
	KindUnknownBackend     Kind = "unknown_backend_error"
	KindFailure            Kind = "failure"
)

// Backend error codes with a localized message.
const (
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeEmailNotFound       = "EMAIL_NOT_FOUND"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeUserDisabled        = "USER_DISABLED"
	CodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS_TRY_LATER"
)

// Error is the single user-facing outcome of a failed call.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Detail renders the error for logs, including the cause.
func (e *Error) Detail() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (status=%d code=%q): %s", e.Kind, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s (status=%d code=%q): %s: %v", e.Kind, e.Status, e.Code, e.Message, e.Err)
}
