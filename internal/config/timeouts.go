// Package config provides centralized timeout constants for the application.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Chat and webhook payloads are small.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Stopword fetch
const (
	// FetchRequest is the default timeout for a single stopword archive download.
	FetchRequest = 30 * time.Second

	// FetchRetryInitial is the first backoff delay: 1s -> 2s -> 4s ...
	FetchRetryInitial = 1 * time.Second
)

// Background jobs
const (
	// ReloadDebounce coalesces bursts of file events from editors and copy tools.
	ReloadDebounce = 500 * time.Millisecond

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = 1 * time.Minute

	// WebhookProcessing bounds answering one LINE event.
	WebhookProcessing = 20 * time.Second

	// RateLimiterCleanup is how often idle per-key buckets are dropped.
	RateLimiterCleanup = 5 * time.Minute
)
