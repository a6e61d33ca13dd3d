package fetcher

import (
	"errors"
	"fmt"
	"time"

	"news-aggregator/pkg/config"
)

// ContentFetchConfig controls the optional full-text enrichment step run
// during ingestion. Articles whose summary is shorter than Threshold get
// their page fetched and reduced with readability.
type ContentFetchConfig struct {
	Enabled        bool
	Threshold      int
	Timeout        time.Duration
	Parallelism    int
	MaxBodySize    int64
	MaxRedirects   int
	DenyPrivateIPs bool
}

func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        false,
		Threshold:      200,
		Timeout:        10 * time.Second,
		Parallelism:    5,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

func (c ContentFetchConfig) Validate() error {
	var errs []error
	if c.Threshold < 0 {
		errs = append(errs, fmt.Errorf("threshold must be >= 0, got %d", c.Threshold))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.Parallelism < 1 || c.Parallelism > 50 {
		errs = append(errs, fmt.Errorf("parallelism must be between 1 and 50, got %d", c.Parallelism))
	}
	if c.MaxBodySize < 1024 {
		errs = append(errs, fmt.Errorf("max body size must be at least 1024 bytes, got %d", c.MaxBodySize))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("max redirects must be >= 0, got %d", c.MaxRedirects))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv reads CONTENT_FETCH_* variables on top of the defaults.
func LoadConfigFromEnv() (ContentFetchConfig, error) {
	d := DefaultConfig()
	cfg := ContentFetchConfig{
		Enabled:        config.GetEnvBool("CONTENT_FETCH_ENABLED", d.Enabled),
		Threshold:      config.GetEnvInt("CONTENT_FETCH_THRESHOLD", d.Threshold),
		Timeout:        config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", d.Timeout),
		Parallelism:    config.GetEnvInt("CONTENT_FETCH_PARALLELISM", d.Parallelism),
		MaxBodySize:    int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(d.MaxBodySize))),
		MaxRedirects:   config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", d.MaxRedirects),
		DenyPrivateIPs: config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", d.DenyPrivateIPs),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch config: %w", err)
	}
	return cfg, nil
}
