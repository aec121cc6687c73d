package httpapi

import (
	"errors"
	"net/http"

	"saha.org/internal/auth"
	"saha.org/internal/obs"
)

// Error codes written in {"error":{"message":CODE}}.
const (
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeEmailNotFound       = "EMAIL_NOT_FOUND"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeUserDisabled        = "USER_DISABLED"
	CodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeInvalidCode         = "INVALID_CODE"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	CodeInternal            = "INTERNAL_ERROR"
)

// handleAuthError maps auth errors to status and code. 401 is reserved for
// credential problems the panel treats as "unauthorized"; login failures use
// other statuses so their specific message reaches the user.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusUnprocessableEntity, CodeInvalidInput)
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, CodeEmailNotFound)
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, r, http.StatusBadRequest, CodeInvalidPassword)
	case errors.Is(err, auth.ErrUserDisabled):
		writeError(w, r, http.StatusForbidden, CodeUserDisabled)
	case errors.Is(err, auth.ErrLoginDisabled):
		writeError(w, r, http.StatusForbidden, CodeOperationNotAllowed)
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, CodeEmailExists)
	case errors.Is(err, auth.ErrInvalidCode):
		writeError(w, r, http.StatusUnprocessableEntity, CodeInvalidCode)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnconfirmedToken):
		writeError(w, r, http.StatusUnauthorized, CodeInvalidToken)
	default:
		obs.Error("auth_internal_error", map[string]any{"error": err.Error(), "request_id": RequestIDFromContext(r.Context())})
		writeError(w, r, http.StatusInternalServerError, CodeInternal)
	}
}
