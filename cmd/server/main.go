// Package main provides the HTTP server entry point: chat API, optional LINE
// webhook, health and metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/app"
	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/sentry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg)

	application, err := app.Initialize(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Error("Startup failed")
		sentry.CaptureStartupError(err, 2*time.Second)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = log.Shutdown(shutdownCtx)
		cancel()
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		os.Exit(1)
	}
}
