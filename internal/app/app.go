// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/ders-bilgi-bot/internal/buildinfo"
	"github.com/garyellow/ders-bilgi-bot/internal/chatapi"
	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/ratelimit"
	"github.com/garyellow/ders-bilgi-bot/internal/sentry"
	"github.com/garyellow/ders-bilgi-bot/internal/webhook"
)

// ServiceName is logged with every record.
const ServiceName = "ders-bilgi-bot"

// Application manages the server lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	core           *Core
	webhookHandler *webhook.Handler // nil when LINE is not configured
	lineLimiter    *ratelimit.KeyedLimiter
	chatLimiter    *ratelimit.KeyedLimiter // nil when rate limiting is disabled
	router         *gin.Engine
	server         *http.Server
	wg             sync.WaitGroup // background goroutines
}

// NewLogger creates the process logger with service metadata and installs it
// as the slog default so slog.*Context calls pick up context values.
func NewLogger(cfg *config.Config) *logger.Logger {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken: cfg.BetterStackToken,
	})

	log = log.WithField("service", ServiceName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	slog.SetDefault(log.Logger)
	return log
}

// NewRegistry creates a Prometheus registry with the runtime collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	return registry
}

// Initialize creates the server application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...CoreOption) (*Application, error) {
	log.WithFields(buildinfo.Fields()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
	}); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	registry := NewRegistry()
	m := metrics.New(registry)

	core, err := BuildCore(ctx, cfg, log, m, opts...)
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
		core:     core,
	}

	if cfg.RateLimitEnabled() {
		app.chatLimiter = newKeyedLimiter(cfg, "chat", m)
		log.WithField("per_minute", cfg.RateLimitPerMinute).
			WithField("burst", cfg.RateLimitBurst).
			Info("Rate limiting enabled")
	}

	if cfg.LineEnabled() {
		var opts []webhook.HandlerOption
		if cfg.RateLimitEnabled() {
			app.lineLimiter = newKeyedLimiter(cfg, "line", m)
			opts = append(opts, webhook.WithLimiter(app.lineLimiter))
		}
		app.webhookHandler, err = webhook.NewHandler(cfg.LineChannelSecret, cfg.LineChannelToken, core.Sessions, m, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("webhook: %w", err)
		}
		log.Info("LINE webhook enabled")
	}

	app.router = app.newRouter()
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

func newKeyedLimiter(cfg *config.Config, name string, m *metrics.Metrics) *ratelimit.KeyedLimiter {
	return ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          name,
		Burst:         cfg.RateLimitBurst,
		RefillRate:    ratelimit.PerMinute(cfg.RateLimitPerMinute),
		CleanupPeriod: config.RateLimiterCleanup,
		Metrics:       m,
	})
}

func (a *Application) newRouter() *gin.Engine {
	if a.cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.Middleware(config.HTTPWrite))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		requireBasicAuth("metrics", metricsCredentials(a.cfg.MetricsAuthEnabled(), a.cfg.MetricsUsername, a.cfg.MetricsPassword)),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	var chatOpts []chatapi.Option
	if a.chatLimiter != nil {
		chatOpts = append(chatOpts, chatapi.WithLimiter(a.chatLimiter))
	}
	chatapi.NewHandler(a.core.Sessions, a.core.Assistant, a.metrics, a.logger, chatOpts...).Register(router)
	if a.webhookHandler != nil {
		router.POST("/webhook", a.webhookHandler.Handle)
	}
	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": buildinfo.Release(),
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	snap := a.core.Catalog.Current()
	if snap == nil || snap.Table().Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "course index unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"dataset": gin.H{
			"source":    snap.Source(),
			"records":   snap.Table().Len(),
			"loaded_at": snap.LoadedAt().Format(time.RFC3339),
		},
		"index": gin.H{
			"vocabulary": snap.Index().VocabularySize(),
		},
		"sessions": a.core.Sessions.Len(),
		"features": gin.H{
			"line_webhook":  a.webhookHandler != nil,
			"dataset_watch": a.cfg.DatasetWatch,
			"metrics_auth":  a.cfg.MetricsAuthEnabled(),
		},
	})
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT/SIGTERM and shuts down.
//
// Shutdown order: cancel background jobs and wait for them, stop accepting
// HTTP requests, drain in-flight webhook events, flush logs and errors.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by the WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.cfg.DatasetWatch {
		a.wg.Go(func() {
			if err := a.core.Watch(ctx, a.logger); err != nil {
				a.logger.WithError(err).Error("Dataset watcher stopped")
			}
		})
	}
	if a.core.Mirror != nil {
		a.wg.Go(func() {
			a.core.Poll(ctx, a.cfg.DatasetWatch)
		})
	}
	a.wg.Go(func() {
		a.updateSessionMetrics(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and flushes remaining work. Call it after
// background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	if a.webhookHandler != nil {
		a.logger.Info("Waiting for webhook events to complete...")
		if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
		}
	}

	a.chatLimiter.Stop()
	a.lineLimiter.Stop()

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("logger shutdown: %w", err)
	}
	return nil
}

// updateSessionMetrics periodically republishes the live session count.
func (a *Application) updateSessionMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.SetSessionsActive(a.core.Sessions.Len())
		}
	}
}
