// Package ctxutil carries tracing ids (session, user, request) through
// context.Context.
package ctxutil

import (
	"context"
	"log/slog"
)

type key int

const (
	sessionIDKey key = iota
	userIDKey
	requestIDKey
)

// tracingKeys lists the values PreserveTracing and Attrs carry, with their
// log attribute names.
var tracingKeys = []struct {
	key  key
	name string
}{
	{sessionIDKey, "session_id"},
	{userIDKey, "user_id"},
	{requestIDKey, "request_id"},
}

func with(ctx context.Context, k key, v string) context.Context {
	return context.WithValue(ctx, k, v)
}

func get(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// WithSessionID adds a chat session id (API session, LINE user/group/room).
func WithSessionID(ctx context.Context, id string) context.Context {
	return with(ctx, sessionIDKey, id)
}

// GetSessionID returns the session id or "".
func GetSessionID(ctx context.Context) string { return get(ctx, sessionIDKey) }

// WithUserID adds a LINE user id. HTTP chat sessions have none.
func WithUserID(ctx context.Context, id string) context.Context {
	return with(ctx, userIDKey, id)
}

// GetUserID returns the user id or "".
func GetUserID(ctx context.Context) string { return get(ctx, userIDKey) }

// WithRequestID adds an HTTP request id or LINE webhook event id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, requestIDKey, id)
}

// GetRequestID returns the request id or "".
func GetRequestID(ctx context.Context) string { return get(ctx, requestIDKey) }

// Attrs returns the non-empty tracing ids as log attributes.
func Attrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, tk := range tracingKeys {
		if v := get(ctx, tk.key); v != "" {
			attrs = append(attrs, slog.String(tk.name, v))
		}
	}
	return attrs
}

// PreserveTracing returns a context with the tracing ids of ctx but none of
// its cancellation or deadline. Webhook events are answered after the HTTP
// response is sent, so they run on such a context.
func PreserveTracing(ctx context.Context) context.Context {
	detached := context.Background()
	for _, tk := range tracingKeys {
		if v := get(ctx, tk.key); v != "" {
			detached = with(detached, tk.key, v)
		}
	}
	return detached
}
