package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"saha.org/internal/i18n"
	"saha.org/internal/obs"
)

const maxErrorBody = 64 << 10

var knownCodes = map[string]i18n.Key{
	CodeEmailExists:         i18n.EmailExists,
	CodeEmailNotFound:       i18n.EmailNotFound,
	CodeInvalidPassword:     i18n.InvalidPassword,
	CodeUserDisabled:        i18n.UserDisabled,
	CodeOperationNotAllowed: i18n.OperationNotAllowed,
	CodeTooManyAttempts:     i18n.TooManyAttempts,
}

// Classifier turns transport failures and error responses into Errors.
type Classifier struct {
	Printer i18n.Printer
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transport classifies an error returned by the round trip itself.
func (c Classifier) Transport(err error) *Error {
	var out *Error
	if errors.As(err, &out) {
		return out
	}
	if offline(err) {
		out = &Error{Kind: KindNetworkUnreachable, Message: c.Printer.Text(i18n.NoConnection), Err: err}
	} else {
		out = &Error{Kind: KindFailure, Message: c.Printer.Text(i18n.GenericFailure), Err: err}
	}
	obs.ClassifiedFailure(string(out.Kind))
	return out
}

// Response classifies a non-2xx response. The body is consumed and closed.
func (c Classifier) Response(resp *http.Response) *Error {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	out := c.classify(resp.StatusCode, raw)
	obs.ClassifiedFailure(string(out.Kind))
	return out
}

func (c Classifier) classify(status int, raw []byte) *Error {
	cause := fmt.Errorf("http status %d", status)
	if status == http.StatusUnauthorized {
		return &Error{Kind: KindUnauthorized, Status: status, Message: c.Printer.Text(i18n.Unauthorized), Err: cause}
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil && body.Error.Message != "" {
		code := body.Error.Message
		if key, ok := knownCodes[code]; ok {
			return &Error{Kind: KindKnownBackend, Status: status, Code: code, Message: c.Printer.Text(key), Err: cause}
		}
		return &Error{Kind: KindUnknownBackend, Status: status, Code: code, Message: code, Err: cause}
	}
	return &Error{Kind: KindFailure, Status: status, Message: c.Printer.Text(i18n.GenericFailure), Err: cause}
}

// offline reports whether err means the API could not be reached at all.
func offline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}
