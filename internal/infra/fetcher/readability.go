// Package fetcher pulls full article text for entries whose upstream summary
// is too short to categorize well.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"news-aggregator/internal/resilience/circuitbreaker"
)

const userAgent = "NewsAggregatorBot/1.0"

// ReadabilityFetcher downloads an article page and extracts its main text.
type ReadabilityFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	cfg            ContentFetchConfig
}

func NewReadabilityFetcher(cfg ContentFetchConfig) *ReadabilityFetcher {
	f := &ReadabilityFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		cfg:            cfg,
	}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
			}
			return validateURL(req.URL.String(), f.cfg.DenyPrivateIPs)
		},
	}
	return f
}

// Threshold is the summary length below which enrichment is attempted.
func (f *ReadabilityFetcher) Threshold() int { return f.cfg.Threshold }

// Parallelism bounds concurrent page fetches within one ingestion run.
func (f *ReadabilityFetcher) Parallelism() int { return f.cfg.Parallelism }

// FetchContent returns the readable text of the page at rawURL.
func (f *ReadabilityFetcher) FetchContent(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL, f.cfg.DenyPrivateIPs); err != nil {
		return "", err
	}
	return circuitbreaker.Do(f.circuitBreaker, func() (string, error) {
		return f.doFetch(ctx, rawURL)
	})
}

func (f *ReadabilityFetcher) doFetch(ctx context.Context, rawURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v", ErrTimeout, f.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.cfg.MaxBodySize)
	}

	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if article.TextContent != "" {
		return article.TextContent, nil
	}
	if article.Content == "" {
		return "", ErrReadabilityFailed
	}
	slog.Debug("readability returned markup only", slog.String("url", rawURL))
	return article.Content, nil
}
