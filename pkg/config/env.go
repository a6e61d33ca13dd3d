// Package config holds the plain environment getters used across the
// service. They never fail: an unset variable yields the default, and an
// unparsable one yields the default plus a warning log. Validated loading
// with fallback metrics lives in internal/pkg/config.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvInt rejects trailing garbage ("12abc").
func GetEnvInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// GetEnvBool accepts the strconv.ParseBool spellings.
func GetEnvBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration accepts time.ParseDuration syntax ("30s", "1h30m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// GetEnvStringList splits a comma-separated value, trimming blanks and
// dropping empty items. A value with no items yields the default.
//
//	RSS_FEEDS="https://a.example/rss, https://b.example/rss"
func GetEnvStringList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("invalid environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return v
}
