package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/infra/fetcher"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>Storm warning</title></head>
<body><article>
<h1>Storm warning issued for the coast</h1>
<p>Forecasters issued a storm warning on Tuesday as a hurricane approached the coastline.</p>
<p>Residents were told to expect heavy rain and flooding through the weekend.</p>
<p>Emergency services have opened shelters across the region.</p>
</article></body></html>`

func localConfig() fetcher.ContentFetchConfig {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestFetchContent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NewsAggregatorBot/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	text, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "hurricane approached")
	assert.NotContains(t, text, "<p>")
}

func TestFetchContent_RejectsBadURLs(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())
	for _, raw := range []string{"not a url", "ftp://example.com/a", "file:///etc/passwd", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := f.FetchContent(context.Background(), raw)
			assert.ErrorIs(t, err, fetcher.ErrInvalidURL)
		})
	}
}

func TestFetchContent_DeniesPrivateAddresses(t *testing.T) {
	f := fetcher.NewReadabilityFetcher(fetcher.DefaultConfig())
	for _, raw := range []string{
		"http://127.0.0.1/a",
		"http://10.0.0.8/a",
		"http://192.168.1.1/a",
		"http://172.16.4.4/a",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]/a",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := f.FetchContent(context.Background(), raw)
			assert.ErrorIs(t, err, fetcher.ErrPrivateIP)
		})
	}
}

func TestFetchContent_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchContent_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := localConfig()
	cfg.Timeout = 50 * time.Millisecond
	_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), srv.URL)
	assert.ErrorIs(t, err, fetcher.ErrTimeout)
}

func TestFetchContent_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("a", 4096) + "</p></body></html>"))
	}))
	defer srv.Close()

	cfg := localConfig()
	cfg.MaxBodySize = 1024
	_, err := fetcher.NewReadabilityFetcher(cfg).FetchContent(context.Background(), srv.URL)
	assert.ErrorIs(t, err, fetcher.ErrBodyTooLarge)
}

func TestFetchContent_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := fetcher.NewReadabilityFetcher(localConfig())

	text, err := f.FetchContent(context.Background(), srv.URL+"/hop")
	require.NoError(t, err)
	assert.Contains(t, text, "Emergency services")

	_, err = f.FetchContent(context.Background(), srv.URL+"/loop")
	assert.ErrorIs(t, err, fetcher.ErrTooManyRedirects)
}

func TestFetchContent_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetcher.NewReadabilityFetcher(localConfig()).FetchContent(ctx, srv.URL)
	assert.Error(t, err)
}

func TestAccessors(t *testing.T) {
	cfg := localConfig()
	cfg.Threshold = 321
	cfg.Parallelism = 7
	f := fetcher.NewReadabilityFetcher(cfg)
	assert.Equal(t, 321, f.Threshold())
	assert.Equal(t, 7, f.Parallelism())
}
