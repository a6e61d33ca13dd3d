package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Ingestion metrics
var (
	IngestCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_cycles_total",
			Help: "Total number of ingestion cycles by outcome",
		},
		[]string{"status"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Time taken by one ingestion cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	ArticlesNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_articles_new_total",
			Help: "Total number of articles stored for the first time",
		},
	)

	AdapterArticlesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_articles_fetched_total",
			Help: "Total number of articles returned by each source adapter",
		},
		[]string{"adapter"},
	)

	AdapterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_errors_total",
			Help: "Total number of failed adapter sub-fetches",
		},
		[]string{"adapter"},
	)

	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content enrichment attempts",
		},
		[]string{"result"}, // success, failure, skipped
	)

	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Search and realtime metrics
var (
	SearchSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_sync_total",
			Help: "Total number of search index rebuilds by outcome",
		},
		[]string{"status"},
	)

	SearchSyncDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_sync_documents",
			Help: "Number of documents pushed by the last successful index rebuild",
		},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Number of open push connections",
		},
	)
)

// Database metrics
var (
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
