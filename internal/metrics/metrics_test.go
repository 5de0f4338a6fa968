package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	assert.NotNil(t, m.QueriesTotal)
	assert.NotNil(t, m.QueryDurationSeconds)
	assert.NotNil(t, m.ZeroSimilarityTotal)
	assert.NotNil(t, m.IndexDocuments)
	assert.NotNil(t, m.IndexVocabulary)
	assert.NotNil(t, m.DatasetReloadsTotal)
	assert.NotNil(t, m.FetchRequestsTotal)
	assert.NotNil(t, m.SingleflightDedupTotal)
	assert.NotNil(t, m.SessionsActive)
	assert.NotNil(t, m.HTTPRequestsTotal)
}

func TestRecordQuery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordQuery("final", 0.002)
	m.RecordQuery("final", 0.003)
	m.RecordQuery("greeting", 0.0001)

	assert.InDelta(t, 2, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("final")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("greeting")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.QueryDurationSeconds))
}

func TestGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetIndexSize(42, 310)
	m.SetSessionsActive(3)

	assert.InDelta(t, 42, testutil.ToFloat64(m.IndexDocuments), 0)
	assert.InDelta(t, 310, testutil.ToFloat64(m.IndexVocabulary), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.SessionsActive), 0)
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordZeroSimilarity()
	m.RecordReload("success")
	m.RecordReload("error")
	m.RecordReload("error")
	m.RecordFetch("success", 1.2)
	m.RecordSingleflightDedup("stopwords")
	m.RecordHTTPRequest("chat", "2xx")
	m.RecordWebhookEvent("message", "replied")
	m.RecordRateLimited("chat")
	m.RecordDatasetSync("updated")

	assert.InDelta(t, 1, testutil.ToFloat64(m.ZeroSimilarityTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DatasetReloadsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchRequestsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SingleflightDedupTotal.WithLabelValues("stopwords")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("chat", "2xx")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("message", "replied")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimitedTotal.WithLabelValues("chat")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DatasetSyncsTotal.WithLabelValues("updated")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordQuery("fallback", 0.1)
		m.RecordZeroSimilarity()
		m.SetIndexSize(1, 1)
		m.RecordReload("success")
		m.RecordFetch("error", 1)
		m.RecordSingleflightDedup("stopwords")
		m.SetSessionsActive(1)
		m.RecordHTTPRequest("webhook", "4xx")
		m.RecordWebhookEvent("message", "skipped")
		m.RecordRateLimited("line")
		m.RecordDatasetSync("error")
	})
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{304, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.code), "code %d", tt.code)
	}
}
