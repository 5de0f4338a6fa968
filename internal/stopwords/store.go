// Package stopwords resolves the fixed-language stopword list from an
// NLTK-layout cache directory, downloading and caching it once when absent.
package stopwords

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// Store loads one language's stopword list.
type Store struct {
	cacheDir string // <data_dir>/corpora/stopwords
	language string
	url      string
	fetcher  Fetcher
	logger   *logger.Logger
	metrics  *metrics.Metrics
	group    singleflight.Group
}

// NewStore creates a Store. cacheDir is the directory holding one file per language.
func NewStore(cacheDir, language, url string, fetcher Fetcher, log *logger.Logger, m *metrics.Metrics) *Store {
	return &Store{
		cacheDir: cacheDir,
		language: language,
		url:      url,
		fetcher:  fetcher,
		logger:   log,
		metrics:  m,
	}
}

// Path returns the cache file for the configured language.
func (s *Store) Path() string {
	return filepath.Join(s.cacheDir, s.language)
}

// Load returns the stopword set, fetching it first when the cache is empty.
// Every failure wraps ErrStopwordsUnavailable.
func (s *Store) Load(ctx context.Context) (map[string]struct{}, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		data, err = s.fetchOnce(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domerrors.ErrStopwordsUnavailable, s.language, err)
	}

	words := parseList(data)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %s: list is empty", domerrors.ErrStopwordsUnavailable, s.language)
	}
	return words, nil
}

// fetchOnce downloads and caches the list; concurrent callers share one download.
func (s *Store) fetchOnce(ctx context.Context) ([]byte, error) {
	v, err, shared := s.group.Do(s.language, func() (any, error) {
		return s.fetch(ctx)
	})
	if shared {
		s.metrics.RecordSingleflightDedup("stopwords")
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Store) fetch(ctx context.Context) ([]byte, error) {
	if s.fetcher == nil {
		return nil, errors.New("not cached and no fetcher configured")
	}

	s.logger.WithModule("stopwords").
		WithField("url", s.url).
		WithField("language", s.language).
		Info("Stopword list not cached, downloading")

	archive, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	data, err := extractList(archive, s.language)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(s.Path(), data); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	s.logger.WithModule("stopwords").
		WithField("path", s.Path()).
		WithField("bytes", len(data)).
		Info("Stopword list cached")
	return data, nil
}

// writeAtomic writes data to a temp file in the target directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
