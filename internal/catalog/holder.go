package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/sentry"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

// Holder publishes the current snapshot with hot-swap on reload.
// Readers take a read lock only long enough to copy the pointer; the
// snapshot itself is immutable, so in-flight queries keep the one they got.
type Holder struct {
	mu      sync.RWMutex
	current *Snapshot

	reloadMu   sync.Mutex // serializes Reload
	path       string
	normalizer *textnorm.Normalizer
	opts       course.Options
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewHolder creates a Holder serving initial. Reloads rebuild from the same
// path, normalizer and options.
func NewHolder(initial *Snapshot, opts course.Options, log *logger.Logger, m *metrics.Metrics) *Holder {
	h := &Holder{
		current:    initial,
		path:       initial.Source(),
		normalizer: initial.Normalizer(),
		opts:       opts,
		logger:     log,
		metrics:    m,
	}
	m.SetIndexSize(initial.Index().Len(), initial.Index().VocabularySize())
	return h
}

// Current returns the snapshot in service.
func (h *Holder) Current() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload builds a fresh snapshot and swaps it in only on success.
// On failure the previous snapshot stays in service.
func (h *Holder) Reload(ctx context.Context) error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	log := h.logger.WithModule("catalog").WithField("path", h.path)
	start := time.Now()

	next, err := Build(ctx, h.path, h.normalizer, h.opts)
	if err != nil {
		h.metrics.RecordReload("error")
		log.WithError(err).Error("Dataset reload failed, keeping previous snapshot")
		sentry.CaptureException(ctx, err)
		return err
	}

	h.mu.Lock()
	h.current = next
	h.mu.Unlock()

	h.metrics.RecordReload("success")
	h.metrics.SetIndexSize(next.Index().Len(), next.Index().VocabularySize())
	log.WithField("records", next.Table().Len()).
		WithField("vocabulary", next.Index().VocabularySize()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Dataset reloaded")
	return nil
}
