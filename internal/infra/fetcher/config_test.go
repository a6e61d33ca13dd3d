package fetcher

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 200, cfg.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.DenyPrivateIPs)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ContentFetchConfig)
		ok     bool
	}{
		{"defaults", func(*ContentFetchConfig) {}, true},
		{"zero threshold", func(c *ContentFetchConfig) { c.Threshold = 0 }, true},
		{"negative threshold", func(c *ContentFetchConfig) { c.Threshold = -1 }, false},
		{"zero timeout", func(c *ContentFetchConfig) { c.Timeout = 0 }, false},
		{"parallelism 0", func(c *ContentFetchConfig) { c.Parallelism = 0 }, false},
		{"parallelism 51", func(c *ContentFetchConfig) { c.Parallelism = 51 }, false},
		{"tiny body", func(c *ContentFetchConfig) { c.MaxBodySize = 10 }, false},
		{"negative redirects", func(c *ContentFetchConfig) { c.MaxRedirects = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONTENT_FETCH_ENABLED", "true")
	t.Setenv("CONTENT_FETCH_THRESHOLD", "500")
	t.Setenv("CONTENT_FETCH_TIMEOUT", "3s")
	t.Setenv("CONTENT_FETCH_PARALLELISM", "2")
	t.Setenv("CONTENT_FETCH_DENY_PRIVATE_IPS", "false")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 500, cfg.Threshold)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.False(t, cfg.DenyPrivateIPs)
	assert.Equal(t, DefaultConfig().MaxRedirects, cfg.MaxRedirects)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("CONTENT_FETCH_PARALLELISM", "100")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("127.0.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("10.1.2.3")))
	assert.False(t, isPrivateIP(net.ParseIP("93.184.216.34")))
}
