package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/resilience/circuitbreaker"
	"news-aggregator/internal/resilience/retry"
)

const (
	newsAPIName = "newsapi"
	// NewsAPI replaces articles taken down by the publisher with this title.
	removedPlaceholder = "[Removed]"
	maxNewsAPIBody     = 5 << 20
	maxNewsAPIPageSize = 100
)

// NewsAPIAdapter fetches top headlines per category and per source batch.
type NewsAPIAdapter struct {
	cfg            NewsAPIConfig
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewNewsAPIAdapter creates the adapter. A nil client gets one with cfg.Timeout.
func NewNewsAPIAdapter(cfg NewsAPIConfig, client *http.Client) *NewsAPIAdapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.SourceBatchSize <= 0 {
		cfg.SourceBatchSize = 20
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	return &NewsAPIAdapter{
		cfg:            cfg,
		client:         client,
		limiter:        rate.NewLimiter(rate.Limit(rps), rps),
		circuitBreaker: circuitbreaker.New(circuitbreaker.NewsAPIConfig()),
		retryConfig:    retry.NewsAPIConfig(),
	}
}

func (a *NewsAPIAdapter) Name() string { return newsAPIName }

// Fetch returns nil without any request when no API key is configured.
func (a *NewsAPIAdapter) Fetch(ctx context.Context, limit int) []entity.NormalizedArticle {
	if a.cfg.APIKey == "" {
		slog.Debug("NEWSAPI_KEY not set, skipping newsapi adapter")
		return nil
	}
	pageSize := clampPageSize(limit)

	fetches := make([]subFetch, 0, len(a.cfg.Categories)+len(a.cfg.Sources)/a.cfg.SourceBatchSize+1)
	for _, category := range a.cfg.Categories {
		params := url.Values{}
		params.Set("country", a.cfg.Country)
		params.Set("category", category)
		params.Set("pageSize", strconv.Itoa(pageSize))
		label := capitalize(category)
		fetches = append(fetches, subFetch{
			target: "category:" + category,
			run: func(ctx context.Context) ([]entity.NormalizedArticle, error) {
				return a.fetchHeadlines(ctx, params, label)
			},
		})
	}

	// NewsAPI rejects sources combined with country or category, so the
	// source batches carry no category and the categorizer decides later.
	for start := 0; start < len(a.cfg.Sources); start += a.cfg.SourceBatchSize {
		batch := a.cfg.Sources[start:min(start+a.cfg.SourceBatchSize, len(a.cfg.Sources))]
		params := url.Values{}
		params.Set("sources", strings.Join(batch, ","))
		params.Set("pageSize", strconv.Itoa(pageSize))
		fetches = append(fetches, subFetch{
			target: "sources:" + strings.Join(batch, ","),
			run: func(ctx context.Context) ([]entity.NormalizedArticle, error) {
				return a.fetchHeadlines(ctx, params, "")
			},
		})
	}

	return gather(ctx, newsAPIName, fetches, a.cfg.MaxConcurrent)
}

func (a *NewsAPIAdapter) fetchHeadlines(ctx context.Context, params url.Values, category string) ([]entity.NormalizedArticle, error) {
	var items []entity.NormalizedArticle

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		res, err := circuitbreaker.Do(a.circuitBreaker, func() ([]entity.NormalizedArticle, error) {
			return a.doFetch(ctx, params, category)
		})
		if err != nil {
			if circuitbreaker.Rejected(err) {
				slog.Warn("newsapi circuit breaker open, request rejected",
					slog.String("service", newsAPIName),
					slog.String("state", a.circuitBreaker.State().String()))
			}
			return err
		}
		items = res
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
}

func (a *NewsAPIAdapter) doFetch(ctx context.Context, params url.Values, category string) ([]entity.NormalizedArticle, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, a.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// The key travels in a header so it never shows up in logged URLs.
	req.Header.Set("X-Api-Key", a.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNewsAPIBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var decoded newsAPIResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && decoded.Message != "" {
			msg = decoded.Code + ": " + decoded.Message
		}
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if decoded.Status == "error" {
		return nil, fmt.Errorf("newsapi error %s: %s", decoded.Code, decoded.Message)
	}

	out := make([]entity.NormalizedArticle, 0, len(decoded.Articles))
	for _, item := range decoded.Articles {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.URL)
		if title == "" || link == "" || title == removedPlaceholder {
			continue
		}
		out = append(out, entity.NormalizedArticle{
			URL:          link,
			Title:        title,
			Source:       item.Source.Name,
			PublishedRaw: item.PublishedAt,
			Summary:      deref(item.Description),
			Category:     category,
			ImageURL:     deref(item.URLToImage),
			SourceType:   entity.SourceTypeNewsAPI,
		})
	}
	return out, nil
}

func clampPageSize(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > maxNewsAPIPageSize:
		return maxNewsAPIPageSize
	default:
		return limit
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// retryAfter reads the delay-seconds form of Retry-After; NewsAPI does not
// send the HTTP-date form.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
