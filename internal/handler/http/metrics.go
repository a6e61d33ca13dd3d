package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news-aggregator/internal/handler/http/responsewriter"
	"news-aggregator/internal/observability/metrics"
)

var httpRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	},
)

// unmatchedRoute labels requests that chi could not route, keeping path
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and response size per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := responsewriter.Wrap(w)
		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(
			r.Method,
			routePattern(r),
			strconv.Itoa(wrapped.StatusCode()),
			time.Since(start),
			wrapped.BytesWritten(),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
