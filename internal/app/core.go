package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/ders-bilgi-bot/internal/assistant"
	"github.com/garyellow/ders-bilgi-bot/internal/catalog"
	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/course"
	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
	"github.com/garyellow/ders-bilgi-bot/internal/extractor"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/r2client"
	"github.com/garyellow/ders-bilgi-bot/internal/session"
	"github.com/garyellow/ders-bilgi-bot/internal/snapshot"
	"github.com/garyellow/ders-bilgi-bot/internal/stopwords"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

// Core is the question answering stack shared by the server and the
// terminal chat.
type Core struct {
	Catalog   *catalog.Holder
	Assistant *assistant.Assistant
	Sessions  *session.Manager
	Mirror    *snapshot.Manager // nil unless the dataset comes from R2
}

// CoreOption customizes BuildCore.
type CoreOption func(*coreOptions)

type coreOptions struct {
	fetcher   stopwords.Fetcher
	store     snapshot.ObjectStore
	extractor []extractor.Option
}

// WithFetcher replaces the stopword archive downloader.
func WithFetcher(f stopwords.Fetcher) CoreOption {
	return func(o *coreOptions) { o.fetcher = f }
}

// WithObjectStore replaces the R2 client used to mirror the dataset.
func WithObjectStore(s snapshot.ObjectStore) CoreOption {
	return func(o *coreOptions) { o.store = s }
}

// WithExtractorOptions passes options to the rule extractor.
func WithExtractorOptions(opts ...extractor.Option) CoreOption {
	return func(o *coreOptions) { o.extractor = append(o.extractor, opts...) }
}

// BuildCore loads the stopwords and the dataset concurrently, fits the index
// and wires the assistant and session manager. Any error is fatal.
func BuildCore(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics, opts ...CoreOption) (*Core, error) {
	o := coreOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = stopwords.NewClient(cfg.FetchTimeout, cfg.FetchMaxRetries, m)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	datasetOpts := course.Options{
		HeaderRows: cfg.DatasetHeaderRows,
		TableName:  cfg.DatasetTable,
		Logger:     log,
	}

	mirror, err := newMirror(ctx, cfg, o.store, log, m)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	store := stopwords.NewStore(cfg.StopwordsCacheDir(), cfg.StopwordsLanguage, cfg.StopwordsURL, o.fetcher, log, m)

	var (
		words map[string]struct{}
		raw   *course.Table
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		words, err = store.Load(gctx)
		return err
	})
	g.Go(func() error {
		if mirror != nil {
			if err := syncDataset(gctx, mirror, cfg.DatasetPath, log); err != nil {
				return err
			}
		}
		var err error
		raw, err = course.Load(gctx, cfg.DatasetPath, datasetOpts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	normalizer := textnorm.New(words)
	snap, err := catalog.FromTable(raw, normalizer, cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	log.WithField("records", snap.Table().Len()).
		WithField("vocabulary", snap.Index().VocabularySize()).
		WithField("stopwords", normalizer.StopwordCount()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Course index ready")

	holder := catalog.NewHolder(snap, datasetOpts, log, m)
	ext := extractor.New(append([]extractor.Option{extractor.WithLocation(loc)}, o.extractor...)...)
	asst := assistant.New(holder, ext, log, m)

	sessions, err := session.NewManager(cfg.SessionCapacity, asst, m)
	if err != nil {
		return nil, err
	}

	return &Core{
		Catalog:   holder,
		Assistant: asst,
		Sessions:  sessions,
		Mirror:    mirror,
	}, nil
}

// newMirror returns nil when the dataset is a plain local file.
func newMirror(ctx context.Context, cfg *config.Config, store snapshot.ObjectStore, log *logger.Logger, m *metrics.Metrics) (*snapshot.Manager, error) {
	if !cfg.R2Enabled() {
		return nil, nil
	}
	if store == nil {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2Bucket,
		})
		if err != nil {
			return nil, err
		}
		store = client
	}
	return snapshot.New(store, snapshot.Config{
		Key:          cfg.R2DatasetKey,
		Path:         cfg.DatasetPath,
		PollInterval: cfg.R2PollInterval,
	}, log, m), nil
}

// syncDataset downloads the dataset. A previously downloaded copy is used
// when R2 is unreachable.
func syncDataset(ctx context.Context, mirror *snapshot.Manager, path string, log *logger.Logger) error {
	_, err := mirror.Sync(ctx)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(path); statErr == nil {
		log.WithError(err).Warn("Dataset download failed, using local copy")
		return nil
	}
	return fmt.Errorf("%w: %w", domerrors.ErrDatasetMissing, err)
}

// Poll mirrors dataset changes from R2 until ctx is done. Reloads go
// through the file watcher when it is running.
func (c *Core) Poll(ctx context.Context, watching bool) {
	if c.Mirror == nil {
		return
	}
	var onChange func(context.Context) error
	if !watching {
		onChange = c.Catalog.Reload
	}
	c.Mirror.Poll(ctx, onChange)
}

// Watch reloads the catalog when the dataset file changes until ctx is done.
func (c *Core) Watch(ctx context.Context, log *logger.Logger) error {
	path := c.Catalog.Current().Source()
	w, err := catalog.NewWatcher(path, config.ReloadDebounce, c.Catalog.Reload, log)
	if err != nil {
		return fmt.Errorf("watch dataset: %w", err)
	}
	defer func() { _ = w.Close() }()

	w.Run(ctx)
	return nil
}
