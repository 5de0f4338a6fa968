// Package assistant answers one question against the current catalog
// snapshot: greeting short-circuit, normalize, best match, rule extraction.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/catalog"
	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/extractor"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
)

// RuleEmpty labels blank questions in replies and metrics.
const RuleEmpty = "empty"

// EmptyQuestionReply answers a blank question.
const EmptyQuestionReply = "Lütfen bir soru yazınız."

// SnapshotSource provides the snapshot in service.
type SnapshotSource interface {
	Current() *catalog.Snapshot
}

// Reply is the answer to one question.
type Reply struct {
	Rule  string
	Text  string
	Score float64 // similarity of the matched record, 0 when none was looked up
}

// Assistant is safe for concurrent use.
type Assistant struct {
	catalog   SnapshotSource
	extractor *extractor.Extractor
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// New creates an Assistant.
func New(source SnapshotSource, ext *extractor.Extractor, log *logger.Logger, m *metrics.Metrics) *Assistant {
	return &Assistant{
		catalog:   source,
		extractor: ext,
		logger:    log,
		metrics:   m,
	}
}

// Answer returns the reply to question.
func (a *Assistant) Answer(ctx context.Context, question string) Reply {
	start := time.Now()
	question = strings.TrimSpace(question)

	if question == "" {
		a.metrics.RecordQuery(RuleEmpty, time.Since(start).Seconds())
		return Reply{Rule: RuleEmpty, Text: EmptyQuestionReply}
	}

	snap := a.catalog.Current()

	var (
		looked bool
		score  float64
	)
	matched := func() *course.Record {
		looked = true
		rec, m := snap.Match(question)
		score = m.Score
		return rec
	}

	r := a.extractor.ResolveWith(question, matched, snap.Table())

	if looked && score == 0 {
		a.metrics.RecordZeroSimilarity()
	}
	elapsed := time.Since(start)
	a.metrics.RecordQuery(r.Rule, elapsed.Seconds())

	a.logger.WithModule("assistant").
		WithField("rule", r.Rule).
		WithField("score", score).
		WithField("duration_ms", elapsed.Milliseconds()).
		DebugContext(ctx, "Question answered")

	return Reply{Rule: r.Rule, Text: r.Text, Score: score}
}
