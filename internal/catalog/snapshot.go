// Package catalog publishes the current course table together with its
// similarity index, and rebuilds both when the dataset changes.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/rag"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

// Snapshot is one immutable (table, index) pair built from one load.
type Snapshot struct {
	table      *course.Table
	index      *rag.TFIDFIndex
	normalizer *textnorm.Normalizer
	source     string
	loadedAt   time.Time
}

// Build loads the dataset at path, normalizes every document and fits the index.
func Build(ctx context.Context, path string, normalizer *textnorm.Normalizer, opts course.Options) (*Snapshot, error) {
	opts.Normalize = normalizer.Normalize

	table, err := course.Load(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return newSnapshot(table, normalizer, path)
}

// FromTable fits the index over a table loaded without a normalizer, for
// startup paths that read the dataset while the stopwords are still loading.
func FromTable(table *course.Table, normalizer *textnorm.Normalizer, source string) (*Snapshot, error) {
	return newSnapshot(table.Renormalized(normalizer.Normalize), normalizer, source)
}

func newSnapshot(table *course.Table, normalizer *textnorm.Normalizer, source string) (*Snapshot, error) {
	index, err := rag.Fit(table.NormalizedDocuments())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", source, err)
	}

	return &Snapshot{
		table:      table,
		index:      index,
		normalizer: normalizer,
		source:     source,
		loadedAt:   time.Now(),
	}, nil
}

// Table returns the course table.
func (s *Snapshot) Table() *course.Table { return s.table }

// Index returns the similarity index.
func (s *Snapshot) Index() *rag.TFIDFIndex { return s.index }

// Normalizer returns the normalizer the index was fit with.
func (s *Snapshot) Normalizer() *textnorm.Normalizer { return s.normalizer }

// Source returns the dataset path.
func (s *Snapshot) Source() string { return s.source }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Match normalizes question and returns its best record and similarity.
func (s *Snapshot) Match(question string) (*course.Record, rag.Match) {
	m := s.index.Best(s.normalizer.Normalize(question))
	return s.table.At(m.Index), m
}

// BestMatch returns the index of the record most similar to question.
func (s *Snapshot) BestMatch(question string) int {
	_, m := s.Match(question)
	return m.Index
}
