package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"news-aggregator/internal/pkg/config"
)

// Metrics covers scheduling itself; the cycle's own outcome is recorded by
// the ingestion pipeline (ingest_cycles_total and friends).
type Metrics struct {
	*config.ConfigMetrics

	// RunsTotal counts scheduled runs by status: success, failure, skipped.
	RunsTotal            *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "scheduler"),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduled ingestion runs by status (success, failure, skipped)",
		}, []string{"status"}),
		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled run",
		}),
	}
}

func (m *Metrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}
