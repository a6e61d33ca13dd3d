package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Token requests by result",
		},
		[]string{"result"}, // success | failure | error
	)

	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_duration_seconds",
			Help:    "Time spent issuing a token, including the bcrypt check",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)

	authRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Requests to protected routes rejected by reason",
		},
		[]string{"reason"}, // missing_token | invalid_token | inactive | lookup_error
	)
)

func recordAuthRequest(result string, seconds float64) {
	authRequestsTotal.WithLabelValues(result).Inc()
	authDuration.Observe(seconds)
}

func recordRejection(reason string) {
	authRejectionsTotal.WithLabelValues(reason).Inc()
}
