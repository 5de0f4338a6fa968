// Package snapshot keeps the local course dataset in step with an object
// in R2 storage.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/r2client"
)

// ErrNotFound is returned when the dataset object does not exist.
var ErrNotFound = errors.New("snapshot: dataset object not found")

// ObjectStore reads objects. *r2client.Client satisfies it.
type ObjectStore interface {
	HeadObject(ctx context.Context, key string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Config holds snapshot manager configuration.
type Config struct {
	Key          string        // object key, e.g. "datasets/ders_bilgi.xlsx" or "datasets/ders.db.zst"
	Path         string        // local dataset path the object is written to
	PollInterval time.Duration // 0 disables polling
}

// Manager mirrors one object to a local file.
type Manager struct {
	store       ObjectStore
	config      Config
	logger      *logger.Logger
	metrics     *metrics.Metrics
	mu          sync.Mutex // serializes Sync
	currentETag string
}

// New creates a new snapshot manager.
func New(store ObjectStore, cfg Config, log *logger.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		store:   store,
		config:  cfg,
		logger:  log.WithModule("snapshot").WithField("key", cfg.Key),
		metrics: m,
	}
}

// Sync downloads the object when its ETag differs from the last download
// or the local file is missing. It reports whether the file was replaced.
func (m *Manager) Sync(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remoteETag, err := m.store.HeadObject(ctx, m.config.Key)
	if err != nil {
		m.metrics.RecordDatasetSync("error")
		if errors.Is(err, r2client.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("head dataset: %w", err)
	}

	if remoteETag != "" && remoteETag == m.currentETag && fileExists(m.config.Path) {
		m.metrics.RecordDatasetSync("unchanged")
		return false, nil
	}

	start := time.Now()
	etag, err := m.download(ctx)
	if err != nil {
		m.metrics.RecordDatasetSync("error")
		return false, err
	}

	m.currentETag = etag
	m.metrics.RecordDatasetSync("updated")
	m.logger.WithField("etag", etag).
		WithField("path", m.config.Path).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Dataset downloaded")
	return true, nil
}

// download writes the object next to the destination and renames it into
// place so readers never see a partial file.
func (m *Manager) download(ctx context.Context) (string, error) {
	body, etag, err := m.store.Download(ctx, m.config.Key)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("download dataset: %w", err)
	}
	defer func() { _ = body.Close() }()

	dir := filepath.Dir(m.config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ders-download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if r2client.IsCompressed(m.config.Key) {
		err = r2client.Decompress(tmp, body)
	} else {
		_, err = io.Copy(tmp, body)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.config.Path); err != nil {
		return "", fmt.Errorf("replace dataset: %w", err)
	}
	return etag, nil
}

// Poll calls Sync every PollInterval until ctx is done. After a replaced
// download, onChange is called when non-nil.
func (m *Manager) Poll(ctx context.Context, onChange func(context.Context) error) {
	if m.config.PollInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	m.logger.WithField("interval", m.config.PollInterval.String()).Info("Dataset polling started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Dataset polling stopped")
			return
		case <-ticker.C:
			changed, err := m.Sync(ctx)
			if err != nil {
				m.logger.WithError(err).Warn("Dataset poll failed")
				continue
			}
			if changed && onChange != nil {
				if err := onChange(ctx); err != nil {
					m.logger.WithError(err).Warn("Reload after download failed")
				}
			}
		}
	}
}

// CurrentETag returns the ETag of the last downloaded object.
func (m *Manager) CurrentETag() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentETag
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
