package ctxutil

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.Empty(t, GetSessionID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithUserID(ctx, "U123")
	ctx = WithRequestID(ctx, "req-9")

	assert.Equal(t, "sess-1", GetSessionID(ctx))
	assert.Equal(t, "U123", GetUserID(ctx))
	assert.Equal(t, "req-9", GetRequestID(ctx))
}

func TestAttrs(t *testing.T) {
	t.Parallel()
	ctx := WithRequestID(WithSessionID(context.Background(), "G1"), "01HEVENT")

	assert.Equal(t, []slog.Attr{
		slog.String("session_id", "G1"),
		slog.String("request_id", "01HEVENT"),
	}, Attrs(ctx))
	assert.Empty(t, Attrs(context.Background()))
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithSessionID(parent, "sess-2")
	parent = WithUserID(parent, "U456")
	parent = WithRequestID(parent, "req-1")
	cancel()

	detached := PreserveTracing(parent)

	assert.NoError(t, detached.Err())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, Attrs(parent), Attrs(detached))
}
