package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration fallbacks for one component. Metric
// names are prefixed with the component name, so each name may be created
// only once per process.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetricsWith registers on reg. Components pass
// prometheus.DefaultRegisterer; tests pass a fresh registry.
func NewConfigMetricsWith(reg prometheus.Registerer, component string) *ConfigMetrics {
	f := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", component),
		}),
		ValidationErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", component),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", component),
		}, []string{"field"}),
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", component),
		}, []string{"field"}),
		FallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", component),
		}),
	}
}

func (m *ConfigMetrics) RecordLoadTimestamp() { m.LoadTimestamp.SetToCurrentTime() }

func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}
