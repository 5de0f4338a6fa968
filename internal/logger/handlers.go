package logger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/ctxutil"
)

// ContextHandler copies tracing values (session_id, user_id, request_id)
// from the context onto every record before delegating.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context values as attributes and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(ctxutil.Attrs(ctx)...)
	return h.handler.Handle(ctx, r)
}

// WithAttrs wraps the inner handler's WithAttrs.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup wraps the inner handler's WithGroup.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// FanoutHandler sends each record to every enabled handler.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler creates a FanoutHandler, dropping nil handlers.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &FanoutHandler{handlers: filtered}
}

// Enabled reports whether any handler accepts the level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle clones the record per handler and joins errors.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies attrs to every handler.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: next}
}

// WithGroup applies the group to every handler.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &FanoutHandler{handlers: next}
}

const (
	defaultShippingQueue   = 1024
	defaultShippingTimeout = 5 * time.Second
)

// ShippingOptions configures the async queue used for remote sinks.
type ShippingOptions struct {
	QueueSize    int
	FlushTimeout time.Duration
}

type shippedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

type shippingQueue struct {
	ch           chan shippedRecord
	flushTimeout time.Duration
	mu           sync.RWMutex // guards closed against sends on a closed channel
	closed       bool
	dropped      atomic.Uint64
	wg           sync.WaitGroup
}

// ShippingHandler queues records for a slow handler so request paths never
// block on the network. Records are dropped when the queue is full.
type ShippingHandler struct {
	queue   *shippingQueue
	handler slog.Handler
}

// NewShippingHandler starts one worker draining the queue into handler.
func NewShippingHandler(handler slog.Handler, opts ShippingOptions) *ShippingHandler {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultShippingQueue
	}
	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = defaultShippingTimeout
	}

	q := &shippingQueue{
		ch:           make(chan shippedRecord, size),
		flushTimeout: timeout,
	}
	q.wg.Go(func() {
		for rec := range q.ch {
			_ = rec.handler.Handle(rec.ctx, rec.record)
		}
	})
	return &ShippingHandler{queue: q, handler: handler}
}

// Enabled delegates to the remote handler.
func (h *ShippingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues a clone of the record.
func (h *ShippingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.queue.mu.RLock()
	defer h.queue.mu.RUnlock()
	if h.queue.closed {
		return nil
	}
	select {
	case h.queue.ch <- shippedRecord{ctx: ctxutil.PreserveTracing(ctx), record: r.Clone(), handler: h.handler}:
	default:
		h.queue.dropped.Add(1)
	}
	return nil
}

// WithAttrs shares the queue with the derived handler.
func (h *ShippingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ShippingHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup shares the queue with the derived handler.
func (h *ShippingHandler) WithGroup(name string) slog.Handler {
	return &ShippingHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Dropped returns the number of records discarded because the queue was full.
func (h *ShippingHandler) Dropped() uint64 {
	return h.queue.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
func (h *ShippingHandler) Shutdown(ctx context.Context) error {
	q := h.queue
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flushTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
