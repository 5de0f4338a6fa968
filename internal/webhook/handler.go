// Package webhook answers LINE Messaging API text messages through the
// sender's chat session.
package webhook

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/ctxutil"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/sentry"
	"github.com/garyellow/ders-bilgi-bot/internal/session"
)

// LINE API limits.
const (
	maxEventsPerWebhook = 100
	maxReplyTextRunes   = 5000
	minReplyTokenLength = 10
)

// Replier sends reply messages. *messaging_api.MessagingApiAPI satisfies it.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// Limiter throttles senders by key. *ratelimit.KeyedLimiter satisfies it.
type Limiter interface {
	Allow(key string) bool
}

// RateLimitedReply is sent instead of an answer once a sender runs out of
// tokens.
const RateLimitedReply = "Çok hızlı soru gönderiyorsunuz. Lütfen biraz bekleyip tekrar deneyin."

// Sessions resolves the conversation for a LINE chat.
type Sessions interface {
	GetOrCreate(key string) *session.Session
}

// Handler handles LINE webhook callbacks.
type Handler struct {
	channelSecret     string
	client            Replier
	sessions          Sessions
	limiter           Limiter
	metrics           *metrics.Metrics
	logger            *logger.Logger
	processingTimeout time.Duration
	wg                sync.WaitGroup
}

// NewHandler creates a webhook handler. Unless WithReplier is given, replies
// go through a Messaging API client built from channelToken.
func NewHandler(channelSecret, channelToken string, sessions Sessions, m *metrics.Metrics, log *logger.Logger, opts ...HandlerOption) (*Handler, error) {
	h := &Handler{
		channelSecret:     channelSecret,
		sessions:          sessions,
		metrics:           m,
		logger:            log.WithModule("webhook"),
		processingTimeout: config.WebhookProcessing,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.client == nil {
		client, err := messaging_api.NewMessagingApiAPI(channelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		h.client = client
	}

	return h, nil
}

// Handle is the gin handler for the webhook endpoint.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		h.metrics.RecordHTTPRequest("webhook", metrics.StatusClass(c.Writer.Status()))
		return
	}

	// LINE expects 200 before the events are answered
	c.Status(http.StatusOK)
	h.metrics.RecordHTTPRequest("webhook", metrics.StatusClass(http.StatusOK))

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).
			WithField("limit", maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		events = events[:maxEventsPerWebhook]
	}
	events = append([]webhook.EventInterface(nil), events...)

	base := ctxutil.PreserveTracing(c.Request.Context())
	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.CaptureException(base, fmt.Errorf("webhook event panic: %v", r))
			}
		}()

		for _, event := range events {
			h.processEvent(base, event)
		}
	})
}

func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	e, ok := event.(webhook.MessageEvent)
	if !ok {
		h.logger.WithField("event_type", fmt.Sprintf("%T", event)).Debug("Unsupported event type")
		h.metrics.RecordWebhookEvent(event.GetType(), "skipped")
		return
	}

	log := h.logger
	if e.WebhookEventId != "" {
		ctx = ctxutil.WithRequestID(ctx, e.WebhookEventId)
		log = log.WithRequestID(e.WebhookEventId)
	}

	question, ok := questionFrom(e)
	if !ok {
		log.WithField("message_type", e.Message.GetType()).Debug("Message not addressed to the bot")
		h.metrics.RecordWebhookEvent("message", "skipped")
		return
	}

	key := sessionKey(e.Source)
	if key == "" {
		log.Debug("Event without source, skipping")
		h.metrics.RecordWebhookEvent("message", "skipped")
		return
	}
	userID := userIDOf(e.Source)
	if userID != "" {
		ctx = ctxutil.WithUserID(ctx, userID)
	}
	ctx = ctxutil.WithSessionID(ctx, key)

	if h.limiter != nil && !h.limiter.Allow(cmp.Or(userID, key)) {
		log.WithField("session_id", key).Warn("Sender rate limited")
		if h.reply(log, e.ReplyToken, RateLimitedReply) {
			h.metrics.RecordWebhookEvent("message", "rate_limited")
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.processingTimeout)
	defer cancel()

	start := time.Now()
	reply := h.sessions.GetOrCreate(key).Ask(ctx, question)
	if !h.reply(log, e.ReplyToken, reply.Text) {
		return
	}

	h.metrics.RecordWebhookEvent("message", "replied")
	log.WithField("rule", reply.Rule).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		InfoContext(ctx, "Event processed")
}

// reply sends one text message and records failures. It reports whether
// the message was delivered.
func (h *Handler) reply(log *logger.Logger, token, text string) bool {
	if len(token) < minReplyTokenLength {
		log.WithField("token_length", len(token)).Debug("Invalid reply token format")
		h.metrics.RecordWebhookEvent("message", "skipped")
		return false
	}

	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: token,
		Messages:   []messaging_api.MessageInterface{textMessage(text)},
	}); err != nil {
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).Debug("Reply token already used or invalid")
		} else {
			log.WithError(err).Error("Failed to send reply")
		}
		h.metrics.RecordWebhookEvent("message", "reply_error")
		return false
	}
	return true
}

// questionFrom extracts the question of a text message. In groups and rooms
// only messages that mention the bot are answered, with the mention removed.
func questionFrom(e webhook.MessageEvent) (string, bool) {
	msg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		return "", false
	}
	if _, personal := e.Source.(webhook.UserSource); personal {
		return msg.Text, true
	}
	if !isBotMentioned(msg) {
		return "", false
	}
	return removeBotMentions(msg.Text, msg.Mention), true
}

func textMessage(text string) *messaging_api.TextMessage {
	if runes := []rune(text); len(runes) > maxReplyTextRunes {
		text = string(runes[:maxReplyTextRunes-3]) + "..."
	}
	return &messaging_api.TextMessage{Text: text}
}

// Shutdown waits for in-flight event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
