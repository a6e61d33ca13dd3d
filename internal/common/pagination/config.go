package pagination

import "news-aggregator/pkg/config"

// Config bounds page-based listings.
type Config struct {
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// LoadFromEnv reads PAGINATION_DEFAULT_PAGE, PAGINATION_DEFAULT_LIMIT and
// PAGINATION_MAX_LIMIT. Unparsable values fall back to the defaults.
func LoadFromEnv() Config {
	d := DefaultConfig()
	return Config{
		DefaultPage:  config.GetEnvInt("PAGINATION_DEFAULT_PAGE", d.DefaultPage),
		DefaultLimit: config.GetEnvInt("PAGINATION_DEFAULT_LIMIT", d.DefaultLimit),
		MaxLimit:     config.GetEnvInt("PAGINATION_MAX_LIMIT", d.MaxLimit),
	}
}
