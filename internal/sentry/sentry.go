// Package sentry reports errors to Better Stack through its Sentry-compatible
// ingestion endpoint.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/garyellow/ders-bilgi-bot/internal/ctxutil"
)

// Config holds error reporting settings.
type Config struct {
	// Token is the Better Stack Errors application token. Empty disables reporting.
	Token string

	// Host is the Better Stack Errors ingesting host (e.g. "errors.betterstack.com").
	Host string

	Environment string
	Release     string

	// SampleRate is the share of errors sent, 1.0 when unset.
	SampleRate float64

	Debug bool
}

// DSN returns the Sentry DSN for cfg: https://$TOKEN@$HOST/1.
// The project id is required by the SDK and ignored by Better Stack.
func (cfg Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host)
}

// Initialize sets up the SDK. It returns nil without doing anything when
// Token is empty.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// Middleware returns the gin middleware that attaches a hub to each request
// and reports panics before gin.Recovery handles them.
func Middleware(timeout time.Duration) gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         timeout,
	})
}

// Flush waits for buffered events to be sent.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is configured.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException reports err on the request hub when ctx carries one,
// tagged with the session, user and request ids found in ctx.
func CaptureException(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for _, attr := range ctxutil.Attrs(ctx) {
			scope.SetTag(attr.Key, attr.Value.String())
		}
		hub.CaptureException(err)
	})
}

// CaptureStartupError reports a fatal startup error and waits for delivery.
func CaptureStartupError(err error, timeout time.Duration) {
	if !IsEnabled() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("phase", "startup")
		sentry.CaptureException(err)
	})
	sentry.Flush(timeout)
}
