package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindBroadcast    = "broadcast"
	kindPersonalized = "personalized"
)

var (
	notificationSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Total number of push notifications by kind and outcome",
		},
		[]string{"kind", "status"}, // status: success|failure|skipped
	)

	notificationFanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_fanout_duration_seconds",
			Help:    "Time taken to compute and deliver one personalized fan-out",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	notificationRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_fanout_recipients",
			Help:    "Number of users notified per fan-out",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func recordSent(kind, status string) {
	notificationSentTotal.WithLabelValues(kind, status).Inc()
}

func recordFanout(d time.Duration, recipients int) {
	notificationFanoutDuration.Observe(d.Seconds())
	notificationRecipients.Observe(float64(recipients))
}
