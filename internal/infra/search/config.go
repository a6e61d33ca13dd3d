package search

import (
	"time"

	"news-aggregator/pkg/config"
)

const (
	DefaultURL   = "http://localhost:7700"
	DefaultIndex = "articles"
)

// Config points the client at a Meilisearch instance.
type Config struct {
	URL    string
	APIKey string
	Index  string
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// TaskPollInterval and TaskTimeout govern waiting for enqueued tasks.
	TaskPollInterval time.Duration
	TaskTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		Index:            DefaultIndex,
		Timeout:          10 * time.Second,
		TaskPollInterval: 100 * time.Millisecond,
		TaskTimeout:      60 * time.Second,
	}
}

// LoadConfig reads MEILI_URL, MEILI_API_KEY and MEILI_INDEX.
func LoadConfig() Config {
	d := DefaultConfig()
	d.URL = config.GetEnvString("MEILI_URL", d.URL)
	d.APIKey = config.GetEnvString("MEILI_API_KEY", "")
	d.Index = config.GetEnvString("MEILI_INDEX", d.Index)
	d.Timeout = config.GetEnvDuration("MEILI_TIMEOUT", d.Timeout)
	d.TaskTimeout = config.GetEnvDuration("MEILI_TASK_TIMEOUT", d.TaskTimeout)
	return d
}
