// Package config loads scheduler-style settings from the environment with a
// fail-open policy: a malformed or out-of-range value never stops startup,
// it falls back to the default and reports a warning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one value. Value always holds a
// usable setting; FallbackApplied reports that the environment value was
// rejected in favour of the default.
type ConfigLoadResult struct {
	Value           any
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable or defaultValue when unset.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback reads a string and runs validator on it. An empty
// variable yields the default without a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration parses a Go duration string ("30s", "5m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return load(envKey, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvBool accepts the strconv.ParseBool spellings.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return load(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}

func load[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: def}
	}
	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return ConfigLoadResult{
			Value:           def,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, def)},
			FallbackApplied: true,
		}
	}
	return ConfigLoadResult{Value: v}
}
