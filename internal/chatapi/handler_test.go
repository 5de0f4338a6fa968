package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/ders-bilgi-bot/internal/assistant"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/session"
)

type upperAnswerer struct{}

func (upperAnswerer) Answer(_ context.Context, q string) assistant.Reply {
	return assistant.Reply{Rule: "test", Text: strings.ToUpper(q)}
}

type fixture struct {
	router   *gin.Engine
	sessions *session.Manager
	metrics  *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.New(prometheus.NewRegistry())
	mgr, err := session.NewManager(8, upperAnswerer{}, m)
	require.NoError(t, err)

	router := gin.New()
	NewHandler(mgr, upperAnswerer{}, m, logger.NewWithWriter("error", &bytes.Buffer{})).Register(router)

	return &fixture{router: router, sessions: mgr, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestCreateSession(t *testing.T) {
	t.Parallel()
	f := setup(t)

	id := f.createSession(t)

	_, err := f.sessions.Get(id)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestPostMessage(t *testing.T) {
	t.Parallel()
	f := setup(t)
	id := f.createSession(t)

	w := f.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"question":"  vize  "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp answerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, answerResponse{Rule: "test", Answer: "VIZE", HistoryLen: 2}, resp)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"question":"final"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.HistoryLen)
}

func TestListMessages(t *testing.T) {
	t.Parallel()
	f := setup(t)
	id := f.createSession(t)
	f.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"question":"selam"}`)

	w := f.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.SessionID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, session.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, "selam", resp.Messages[0].Text)
	assert.Equal(t, session.RoleAssistant, resp.Messages[1].Role)
	assert.Equal(t, "SELAM", resp.Messages[1].Text)
}

func TestListMessagesEmptySession(t *testing.T) {
	t.Parallel()
	f := setup(t)
	id := f.createSession(t)

	w := f.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"`+id+`","messages":[]}`, w.Body.String())
}

func TestRequestErrors(t *testing.T) {
	t.Parallel()
	f := setup(t)
	id := f.createSession(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session post", http.MethodPost, "/api/sessions/nope/messages", `{"question":"selam"}`, http.StatusNotFound},
		{"unknown session list", http.MethodGet, "/api/sessions/nope/messages", "", http.StatusNotFound},
		{"empty question", http.MethodPost, "/api/sessions/" + id + "/messages", `{"question":""}`, http.StatusBadRequest},
		{"blank question", http.MethodPost, "/api/sessions/" + id + "/messages", `{"question":"   "}`, http.StatusBadRequest},
		{"missing body", http.MethodPost, "/api/sessions/" + id + "/messages", "", http.StatusBadRequest},
		{"invalid json", http.MethodPost, "/api/ask", `{"question":`, http.StatusBadRequest},
		{"too long", http.MethodPost, "/api/ask", `{"question":"` + strings.Repeat("a", MaxQuestionRunes+1) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	s, err := f.sessions.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len(), "rejected requests must not touch history")
}

func TestAsk(t *testing.T) {
	t.Parallel()
	f := setup(t)

	w := f.do(t, http.MethodPost, "/api/ask", `{"question":"bütünleme"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rule":"test","answer":"BÜTÜNLEME"}`, w.Body.String())
	assert.Equal(t, 0, f.sessions.Len())
}

type denyAfter struct{ left int }

func (d *denyAfter) Allow(string) bool {
	d.left--
	return d.left >= 0
}

func TestThrottle(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	m := metrics.New(prometheus.NewRegistry())
	mgr, err := session.NewManager(8, upperAnswerer{}, m)
	require.NoError(t, err)
	router := gin.New()
	NewHandler(mgr, upperAnswerer{}, m, logger.NewWithWriter("error", &bytes.Buffer{}), WithLimiter(&denyAfter{left: 2})).Register(router)
	f := &fixture{router: router, sessions: mgr, metrics: m}

	id := f.createSession(t)
	w := f.do(t, http.MethodPost, "/api/ask", `{"question":"vize"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"question":"final"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	assert.Equal(t, http.StatusOK, w.Code, "history reads are not throttled")
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("chat", "4xx")), 0)
}

func TestRequestsAreCounted(t *testing.T) {
	t.Parallel()
	f := setup(t)

	f.createSession(t)
	f.do(t, http.MethodGet, "/api/sessions/nope/messages", "")

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("chat", "2xx")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("chat", "4xx")), 0)
}
