package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/extractor"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// setupTestApp builds an Application over the fixture dataset without
// starting the HTTP server.
func setupTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()

	cfg := testConfig(t, true)
	if mutate != nil {
		mutate(cfg)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	core, err := BuildCore(t.Context(), cfg, testLogger(), m)
	require.NoError(t, err)

	app := &Application{
		cfg:      cfg,
		logger:   testLogger(),
		metrics:  m,
		registry: registry,
		core:     core,
	}
	if cfg.RateLimitEnabled() {
		app.chatLimiter = newKeyedLimiter(cfg, "chat", m)
		t.Cleanup(app.chatLimiter.Stop)
	}
	app.router = app.newRouter()
	gin.SetMode(gin.TestMode)
	return app
}

func (a *Application) serve(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestLivenessCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	w := app.serve(http.MethodGet, "/livez", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestReadinessCheck(t *testing.T) {
	app := setupTestApp(t, nil)

	w := app.serve(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Dataset struct {
			Records int `json:"records"`
		} `json:"dataset"`
		Features map[string]bool `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, 5, body.Dataset.Records)
	assert.False(t, body.Features["line_webhook"])
	assert.False(t, body.Features["metrics_auth"])
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	app := setupTestApp(t, nil)

	w := app.serve(http.MethodGet, "/livez", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = app.serve(http.MethodGet, "/livez", "", "X-Correlation-Id", "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t, func(c *config.Config) { c.MetricsPassword = "s3cret" })

	w := app.serve(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	app.serve(http.MethodPost, "/api/ask", `{"question":"selam"}`)

	w = app.serve(http.MethodGet, "/metrics", "", "Authorization", basic("prometheus", "s3cret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ders_queries_total{rule="greeting"} 1`)
	assert.Contains(t, w.Body.String(), "ders_index_documents 5")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestChatRoutesEndToEnd(t *testing.T) {
	app := setupTestApp(t, nil)

	w := app.serve(http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.serve(http.MethodPost, "/api/sessions/"+created.SessionID+"/messages", `{"question":"Merhaba"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Rule       string `json:"rule"`
		Answer     string `json:"answer"`
		HistoryLen int    `json:"history_len"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, extractor.RuleGreeting, reply.Rule)
	assert.Equal(t, extractor.GreetingReply, reply.Answer)
	assert.Equal(t, 2, reply.HistoryLen)
}

func TestWebhookRouteOnlyWhenConfigured(t *testing.T) {
	app := setupTestApp(t, nil)
	w := app.serve(http.MethodPost, "/webhook", `{"events":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRateLimit(t *testing.T) {
	app := setupTestApp(t, func(c *config.Config) {
		c.RateLimitPerMinute = 1
		c.RateLimitBurst = 2
	})

	for range 2 {
		w := app.serve(http.MethodPost, "/api/ask", `{"question":"selam"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := app.serve(http.MethodPost, "/api/ask", `{"question":"selam"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, app.chatLimiter.Len())
}
