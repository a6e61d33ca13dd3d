package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/resilience/circuitbreaker"
	"news-aggregator/internal/resilience/retry"
)

const (
	rssName          = "rss"
	defaultRSSSource = "RSS"
)

// RSSAdapter reads a fixed list of RSS/Atom feeds with gofeed.
type RSSAdapter struct {
	cfg            RSSConfig
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSAdapter creates the adapter. A nil client gets one with cfg.Timeout.
func NewRSSAdapter(cfg RSSConfig, client *http.Client) *RSSAdapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &RSSAdapter{
		cfg:            cfg,
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (a *RSSAdapter) Name() string { return rssName }

// Fetch reads every configured feed and keeps the first limit entries of each.
func (a *RSSAdapter) Fetch(ctx context.Context, limit int) []entity.NormalizedArticle {
	fetches := make([]subFetch, 0, len(a.cfg.Feeds))
	for _, feedURL := range a.cfg.Feeds {
		fetches = append(fetches, subFetch{
			target: feedURL,
			run: func(ctx context.Context) ([]entity.NormalizedArticle, error) {
				return a.fetchFeed(ctx, feedURL, limit)
			},
		})
	}
	return gather(ctx, rssName, fetches, a.cfg.MaxConcurrent)
}

func (a *RSSAdapter) fetchFeed(ctx context.Context, feedURL string, limit int) ([]entity.NormalizedArticle, error) {
	var feed *gofeed.Feed

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		res, err := circuitbreaker.Do(a.circuitBreaker, func() (*gofeed.Feed, error) {
			return a.doFetch(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.Rejected(err) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", a.circuitBreaker.State().String()))
			}
			return err
		}
		feed = res
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return normalizeFeed(feed, limit), nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (a *RSSAdapter) doFetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.UserAgent = a.cfg.UserAgent
	fp.Client = a.client

	feed, err := fp.ParseURLWithContext(feedURL, reqCtx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}
	return feed, nil
}

func normalizeFeed(feed *gofeed.Feed, limit int) []entity.NormalizedArticle {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = defaultRSSSource
	}

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]entity.NormalizedArticle, 0, len(items))
	for _, it := range items {
		link := strings.TrimSpace(it.Link)
		title := strings.TrimSpace(it.Title)
		if link == "" || title == "" {
			continue
		}

		summary := StripHTML(it.Description)
		if summary == "" {
			summary = StripHTML(it.Content)
		}

		pub := it.PublishedParsed
		if pub == nil {
			pub = it.UpdatedParsed
		}
		raw := it.Published
		if raw == "" {
			raw = it.Updated
		}

		out = append(out, entity.NormalizedArticle{
			URL:          link,
			Title:        title,
			Source:       source,
			PublishedAt:  pub,
			PublishedRaw: raw,
			Summary:      summary,
			ImageURL:     itemImage(it),
			SourceType:   entity.SourceTypeRSS,
		})
	}
	return out
}

func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
