// Package chatapi exposes chat sessions over JSON HTTP.
package chatapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/ders-bilgi-bot/internal/assistant"
	"github.com/garyellow/ders-bilgi-bot/internal/ctxutil"
	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/session"
)

// MaxQuestionRunes bounds the length of one question.
const MaxQuestionRunes = 1000

// SessionStore opens and looks up sessions.
type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
}

// Answerer answers stateless one-shot questions.
type Answerer interface {
	Answer(ctx context.Context, question string) assistant.Reply
}

// Limiter throttles callers by key. *ratelimit.KeyedLimiter satisfies it.
type Limiter interface {
	Allow(key string) bool
}

// Handler serves the chat API.
type Handler struct {
	sessions SessionStore
	answerer Answerer
	limiter  Limiter
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLimiter throttles question requests per client IP.
func WithLimiter(l Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// NewHandler creates a chat API handler.
func NewHandler(sessions SessionStore, answerer Answerer, m *metrics.Metrics, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		answerer: answerer,
		metrics:  m,
		logger:   log.WithModule("chatapi"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api", h.recordRequest(), h.throttle())
	api.POST("/sessions", h.createSession)
	api.POST("/sessions/:id/messages", h.postMessage)
	api.GET("/sessions/:id/messages", h.listMessages)
	api.POST("/ask", h.ask)
}

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Rule       string `json:"rule"`
	Answer     string `json:"answer"`
	HistoryLen int    `json:"history_len,omitempty"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
}

func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.Create()
	h.logger.WithSessionID(s.ID()).DebugContext(c.Request.Context(), "Session created")
	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID()})
}

func (h *Handler) postMessage(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	question, ok := h.bindQuestion(c)
	if !ok {
		return
	}

	ctx := ctxutil.WithSessionID(c.Request.Context(), s.ID())
	reply := s.Ask(ctx, question)

	c.JSON(http.StatusOK, answerResponse{
		Rule:       reply.Rule,
		Answer:     reply.Text,
		HistoryLen: s.Len(),
	})
}

func (h *Handler) listMessages(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, historyResponse{SessionID: s.ID(), Messages: s.History()})
}

func (h *Handler) ask(c *gin.Context) {
	question, ok := h.bindQuestion(c)
	if !ok {
		return
	}
	reply := h.answerer.Answer(c.Request.Context(), question)
	c.JSON(http.StatusOK, answerResponse{Rule: reply.Rule, Answer: reply.Text})
}

func (h *Handler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if domerrors.IsSessionNotFound(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

// bindQuestion decodes the request body and rejects blank or oversized
// questions with 400.
func (h *Handler) bindQuestion(c *gin.Context) (string, bool) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err))
		return "", false
	}

	q := strings.TrimSpace(req.Question)
	switch {
	case q == "":
		h.badRequest(c, domerrors.NewValidationError("question", "must not be empty"))
		return "", false
	case utf8.RuneCountInString(q) > MaxQuestionRunes:
		h.badRequest(c, domerrors.NewValidationError("question", "too long"))
		return "", false
	}
	return q, true
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.WithError(err).DebugContext(c.Request.Context(), "Rejected chat request")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// throttle answers 429 once a client IP runs out of tokens. History reads
// are not throttled.
func (h *Handler) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if !h.limiter.Allow(c.ClientIP()) {
			h.logger.WithField("client_ip", c.ClientIP()).WarnContext(c.Request.Context(), "Chat client rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": domerrors.ErrRateLimited.Error()})
			return
		}
		c.Next()
	}
}

// recordRequest counts every API response by status class.
func (h *Handler) recordRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.metrics.RecordHTTPRequest("chat", metrics.StatusClass(c.Writer.Status()))
		h.logger.WithField("http_path", c.FullPath()).
			WithField("http_status", c.Writer.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			DebugContext(c.Request.Context(), "Chat request handled")
	}
}
