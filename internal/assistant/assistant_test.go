package assistant

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/ders-bilgi-bot/internal/catalog"
	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/course/coursetest"
	"github.com/garyellow/ders-bilgi-bot/internal/extractor"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/metrics"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

type staticSource struct {
	snap *catalog.Snapshot
}

func (s staticSource) Current() *catalog.Snapshot { return s.snap }

func newTestAssistant(t *testing.T) (*Assistant, *metrics.Metrics) {
	t.Helper()

	path := coursetest.WriteCSV(t, t.TempDir(), "dersler", coursetest.WithHeader(coursetest.Rows))
	norm := textnorm.New(map[string]struct{}{"ve": {}, "ne": {}, "mi": {}, "var": {}})
	snap, err := catalog.Build(context.Background(), path, norm, course.Options{HeaderRows: 1})
	require.NoError(t, err)

	monday := func() time.Time { return time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC) }
	ext := extractor.New(extractor.WithClock(monday), extractor.WithLocation(time.UTC))
	m := metrics.New(prometheus.NewRegistry())

	return New(staticSource{snap}, ext, logger.NewWithWriter("error", io.Discard), m), m
}

func TestAnswer(t *testing.T) {
	a, _ := newTestAssistant(t)

	tests := []struct {
		question string
		wantRule string
		want     string
	}{
		{"merhaba", extractor.RuleGreeting, extractor.GreetingReply},
		{"Veri Yapıları final tarihi ne?", extractor.RuleFinal, "Veri Yapıları dersi finali: 16.06.2025 Saat: 13:00"},
		{"Algoritmalar vize ve final tarihi nedir", extractor.RuleFinal, "Algoritmalar dersi finali: 17.06.2025 Saat: 10:00"},
		{"İşletim Sistemleri dersliği", extractor.RuleRoom, "İşletim Sistemleri dersi:\n- Pazartesi: C301\n- Cuma: C302"},
		{"pazartesi günü 2. sınıf dersleri", extractor.RuleWeekday, "Pazartesi günü dersler:\n- Veri Yapıları"},
		{"15.06.2025 tarihinde sınav var mı", extractor.RuleExamDate, "15.06.2025 tarihinde yapılan sınav(lar):\n- Matematik I (Final)\n- İşletim Sistemleri (Final)"},
		{"   ", RuleEmpty, EmptyQuestionReply},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := a.Answer(context.Background(), tt.question)
			assert.Equal(t, tt.wantRule, got.Rule)
			assert.Equal(t, tt.want, got.Text)
		})
	}
}

func TestAnswer_Metrics(t *testing.T) {
	a, m := newTestAssistant(t)
	ctx := context.Background()

	a.Answer(ctx, "merhaba")
	a.Answer(ctx, "Matematik final")
	a.Answer(ctx, "qqq zzz")

	assert.InDelta(t, 1, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(extractor.RuleGreeting)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(extractor.RuleFinal)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(extractor.RuleFallback)), 0)
	// Greeting never looks up a record; only "qqq zzz" matched nothing.
	assert.InDelta(t, 1, testutil.ToFloat64(m.ZeroSimilarityTotal), 0)
}

func TestAnswer_ScoreReported(t *testing.T) {
	a, _ := newTestAssistant(t)

	assert.Zero(t, a.Answer(context.Background(), "merhaba").Score)
	assert.Positive(t, a.Answer(context.Background(), "Algoritmalar nerede").Score)
}
