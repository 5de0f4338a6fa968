// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// All Record/Set methods are no-ops on a nil *Metrics.
type Metrics struct {
	// Query metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDurationSeconds prometheus.Histogram
	ZeroSimilarityTotal  prometheus.Counter

	// Index metrics
	IndexDocuments  prometheus.Gauge
	IndexVocabulary prometheus.Gauge

	// Dataset metrics
	DatasetReloadsTotal *prometheus.CounterVec
	DatasetSyncsTotal   *prometheus.CounterVec

	// Stopword fetch metrics
	FetchRequestsTotal   *prometheus.CounterVec
	FetchDurationSeconds prometheus.Histogram

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	// LINE webhook metrics
	WebhookEventsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimitedTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_queries_total",
				Help: "Total number of answered questions by matched rule",
			},
			[]string{"rule"}, // rule: greeting, final, vize, ..., fallback, empty
		),

		QueryDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ders_query_duration_seconds",
				Help:    "Question answering duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),

		ZeroSimilarityTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ders_zero_similarity_total",
				Help: "Questions whose best match had no shared vocabulary with any course",
			},
		),

		IndexDocuments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ders_index_documents",
				Help: "Number of course documents in the current similarity index",
			},
		),

		IndexVocabulary: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ders_index_vocabulary",
				Help: "Number of distinct terms in the current similarity index",
			},
		),

		DatasetReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_dataset_reloads_total",
				Help: "Total number of dataset reload attempts by status",
			},
			[]string{"status"}, // status: success, error
		),

		DatasetSyncsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_dataset_syncs_total",
				Help: "Total dataset downloads from object storage by outcome",
			},
			[]string{"status"}, // updated, unchanged, error
		),

		FetchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_stopwords_fetch_total",
				Help: "Total number of stopword archive downloads by status",
			},
			[]string{"status"}, // status: success, error
		),

		FetchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ders_stopwords_fetch_duration_seconds",
				Help:    "Stopword archive download duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_singleflight_dedup_total",
				Help: "Total number of calls that waited on an in-flight call instead of executing",
			},
			[]string{"module"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ders_sessions_active",
				Help: "Number of sessions currently held in memory",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_http_requests_total",
				Help: "Total HTTP requests by surface and status class",
			},
			[]string{"surface", "status"}, // surface: chat, webhook; status: 2xx, 4xx, 5xx
		),

		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_webhook_events_total",
				Help: "Total LINE webhook events by type and outcome",
			},
			[]string{"event_type", "status"}, // status: replied, skipped, reply_error, rate_limited
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ders_rate_limited_total",
				Help: "Total requests dropped by a rate limiter",
			},
			[]string{"limiter"}, // line, chat
		),
	}
}

// RecordQuery records one answered question
func (m *Metrics) RecordQuery(rule string, duration float64) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(rule).Inc()
	m.QueryDurationSeconds.Observe(duration)
}

// RecordZeroSimilarity records a question that matched nothing
func (m *Metrics) RecordZeroSimilarity() {
	if m == nil {
		return
	}
	m.ZeroSimilarityTotal.Inc()
}

// SetIndexSize publishes the size of the current index
func (m *Metrics) SetIndexSize(documents, vocabulary int) {
	if m == nil {
		return
	}
	m.IndexDocuments.Set(float64(documents))
	m.IndexVocabulary.Set(float64(vocabulary))
}

// RecordReload records a dataset reload attempt
func (m *Metrics) RecordReload(status string) {
	if m == nil {
		return
	}
	m.DatasetReloadsTotal.WithLabelValues(status).Inc()
}

// RecordDatasetSync records one object storage sync attempt
func (m *Metrics) RecordDatasetSync(status string) {
	if m == nil {
		return
	}
	m.DatasetSyncsTotal.WithLabelValues(status).Inc()
}

// RecordFetch records a stopword archive download
func (m *Metrics) RecordFetch(status string, duration float64) {
	if m == nil {
		return
	}
	m.FetchRequestsTotal.WithLabelValues(status).Inc()
	m.FetchDurationSeconds.Observe(duration)
}

// RecordSingleflightDedup records a deduplicated call
func (m *Metrics) RecordSingleflightDedup(module string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// SetSessionsActive publishes the number of live sessions
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordHTTPRequest records a handled request on a public surface
func (m *Metrics) RecordHTTPRequest(surface, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(surface, status).Inc()
}

// RecordWebhookEvent records one processed LINE event
func (m *Metrics) RecordWebhookEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, status).Inc()
}

// RecordRateLimited records a request dropped by the named limiter
func (m *Metrics) RecordRateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(limiter).Inc()
}

// StatusClass maps an HTTP status code to its "Nxx" label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
