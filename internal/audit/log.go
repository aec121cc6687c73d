// Package audit writes security-relevant events (logins, logouts, cleared
// tokens, denied navigations) as JSON lines on the shared logger.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"saha.org/internal/obs"
)

type ctxKey string

const (
	requestIDKey    ctxKey = "audit_request_id"
	actorKey        ctxKey = "audit_actor"
	navigationIDKey ctxKey = "audit_navigation_id"
)

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

// WithActor attaches the acting user id.
func WithActor(ctx context.Context, userID string) context.Context {
	return withString(ctx, actorKey, userID)
}

// WithNavigation attaches the navigation id of a guard run.
func WithNavigation(ctx context.Context, navID string) context.Context {
	return withString(ctx, navigationIDKey, navID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string { return stringFrom(ctx, requestIDKey) }

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request, actor and
// navigation context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := stringFrom(ctx, requestIDKey); rid != "" {
		entry["request_id"] = rid
	}
	if actor := stringFrom(ctx, actorKey); actor != "" {
		entry["user_id"] = actor
	}
	if nav := stringFrom(ctx, navigationIDKey); nav != "" {
		entry["navigation_id"] = nav
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	entry["fields"] = copyFields

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
