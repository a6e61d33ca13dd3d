// Package worker schedules the ingestion cycle with robfig/cron inside the
// API process, where the push connections live.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"news-aggregator/internal/pkg/config"
)

// Config controls the ingestion schedule.
type Config struct {
	// Schedule is a five-field cron expression or a descriptor such as
	// "@every 300s".
	Schedule string
	Timezone string
	// Limit caps how many new articles one cycle hands to notification.
	Limit int
	// Timeout bounds a single cycle.
	Timeout time.Duration
	// NotifyMaxConcurrent bounds the per-user fan-out pool.
	NotifyMaxConcurrent int
	// RunOnStart triggers a cycle right after Start instead of waiting for
	// the first tick.
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		Schedule:            "@every 300s",
		Timezone:            "UTC",
		Limit:               20,
		Timeout:             5 * time.Minute,
		NotifyMaxConcurrent: 10,
		RunOnStart:          true,
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.Limit, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("limit: %w", err))
	}
	if err := config.ValidateDuration(c.Timeout, 10*time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv never fails: each invalid variable falls back to its
// default with a warning and a fallback metric.
//
//	INGEST_SCHEDULE        cron or descriptor   (@every 300s)
//	INGEST_TIMEZONE        IANA name            (UTC)
//	INGEST_LIMIT           1-100                (20)
//	INGEST_TIMEOUT         10s-1h               (5m)
//	INGEST_RUN_ON_START    bool                 (true)
//	NOTIFY_MAX_CONCURRENT  1-50                 (10)
func LoadConfigFromEnv(logger *slog.Logger, m *Metrics) Config {
	cfg := DefaultConfig()
	fallback := false

	apply := func(field string, r config.ConfigLoadResult) any {
		if r.FallbackApplied {
			fallback = true
			m.RecordValidationError(field)
			m.RecordFallback(field)
			for _, w := range r.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", w))
			}
		}
		return r.Value
	}

	cfg.Schedule = apply("schedule", config.LoadEnvWithFallback("INGEST_SCHEDULE", cfg.Schedule, config.ValidateCronSchedule)).(string)
	cfg.Timezone = apply("timezone", config.LoadEnvWithFallback("INGEST_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).(string)
	cfg.Limit = apply("limit", config.LoadEnvInt("INGEST_LIMIT", cfg.Limit, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})).(int)
	cfg.Timeout = apply("timeout", config.LoadEnvDuration("INGEST_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})).(time.Duration)
	cfg.RunOnStart = apply("run_on_start", config.LoadEnvBool("INGEST_RUN_ON_START", cfg.RunOnStart)).(bool)
	cfg.NotifyMaxConcurrent = apply("notify_max_concurrent", config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})).(int)

	m.SetFallbackActive(fallback)
	m.RecordLoadTimestamp()
	return cfg
}
