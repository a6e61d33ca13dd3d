package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ─── IP extraction ─── */

func TestRemoteAddrExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	ip, err := RemoteAddrExtractor{}.ExtractIP(req)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip, "forwarded headers are ignored")

	req.RemoteAddr = "garbage"
	_, err = RemoteAddrExtractor{}.ExtractIP(req)
	assert.Error(t, err)
}

func TestTrustedProxyExtractor(t *testing.T) {
	e, err := NewTrustedProxyExtractor([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"untrusted peer ignores header", "203.0.113.9:1", "1.2.3.4", "203.0.113.9"},
		{"trusted peer uses client", "10.1.2.3:1", "1.2.3.4", "1.2.3.4"},
		{"skips proxy chain", "10.1.2.3:1", "1.2.3.4, 192.168.1.1, 10.9.9.9", "1.2.3.4"},
		{"spoofed left entry ignored", "10.1.2.3:1", "6.6.6.6, 1.2.3.4", "1.2.3.4"},
		{"malformed header falls back", "10.1.2.3:1", "nope", "10.1.2.3"},
		{"no header", "10.1.2.3:1", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			got, err := e.ExtractIP(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = NewTrustedProxyExtractor([]string{"not-a-cidr/99"})
	assert.Error(t, err)
}

func TestExtractorFromEnv(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	e, err := ExtractorFromEnv()
	require.NoError(t, err)
	assert.IsType(t, RemoteAddrExtractor{}, e)

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.0/12")
	e, err = ExtractorFromEnv()
	require.NoError(t, err)
	assert.IsType(t, &TrustedProxyExtractor{}, e)
}

/* ─── rate limiting ─── */

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter("test", 2, time.Minute, nil)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/token", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("1.1.1.1:1"))
	assert.Equal(t, http.StatusNoContent, hit("1.1.1.1:2"))
	assert.Equal(t, http.StatusTooManyRequests, hit("1.1.1.1:3"))
	assert.Equal(t, http.StatusNoContent, hit("2.2.2.2:1"), "other clients are unaffected")
	assert.Equal(t, 2, rl.ActiveKeys())
}

func TestRateLimiter_SweepsIdle(t *testing.T) {
	rl := NewRateLimiter("test", 5, time.Second, nil)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.get("1.1.1.1")
	rl.get("2.2.2.2")

	now = now.Add(10 * time.Second)
	rl.get("3.3.3.3")
	assert.Equal(t, 1, rl.ActiveKeys())
}
