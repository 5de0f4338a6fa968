package sentry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/ders-bilgi-bot/internal/ctxutil"
)

func TestConfigDSN(t *testing.T) {
	t.Parallel()

	cfg := Config{Token: "tok", Host: "errors.betterstack.com"}
	assert.Equal(t, "https://tok@errors.betterstack.com/1", cfg.DSN())
}

func TestInitializeDisabledWithoutToken(t *testing.T) {
	require.NoError(t, Initialize(Config{}))
	assert.False(t, IsEnabled())

	// No client: startup capture is a no-op and must not block.
	CaptureStartupError(errors.New("dataset missing"), 10*time.Millisecond)
}

func TestInitializeRequiresHost(t *testing.T) {
	t.Parallel()

	assert.Error(t, Initialize(Config{Token: "tok"}))
}

func TestInitializeValidConfig(t *testing.T) {
	// Sentry keeps global state, so this runs serially.
	err := Initialize(Config{
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
	})
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	Flush(time.Second)
}

func TestMiddlewareAttachesHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(time.Second))

	var hasHub bool
	router.GET("/", func(c *gin.Context) {
		hasHub = sentrygin.GetHubFromContext(c) != nil
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, hasHub)
}

func TestCaptureExceptionTagsTracingIDs(t *testing.T) {
	t.Parallel()

	var got []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			got = append(got, event)
			return nil
		},
	})
	require.NoError(t, err)

	ctx := sentry.SetHubOnContext(context.Background(), sentry.NewHub(client, sentry.NewScope()))
	ctx = ctxutil.WithSessionID(ctx, "G42")
	ctx = ctxutil.WithRequestID(ctx, "01HEVENT")

	CaptureException(ctx, errors.New("reload failed"))

	require.Len(t, got, 1)
	assert.Equal(t, "G42", got[0].Tags["session_id"])
	assert.Equal(t, "01HEVENT", got[0].Tags["request_id"])
	assert.NotContains(t, got[0].Tags, "user_id")
}
