// Package ingest runs one ingestion cycle: gather articles from every source
// adapter, drop what is already stored, categorize the rest and persist them
// in a single transaction.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/observability/tracing"
	"news-aggregator/internal/repository"
)

// Adapter is a news source. Fetch must not fail: problems degrade to fewer
// (or zero) articles.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, limit int) []entity.NormalizedArticle
}

type Categorizer interface {
	Categorize(title, content string) string
}

// ContentFetcher returns the readable text of an article page.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// ContentConfig controls optional enrichment of short summaries.
type ContentConfig struct {
	Threshold   int
	Parallelism int
}

// Service is safe for concurrent use; cycles are serialized.
type Service struct {
	repo        repository.ArticleRepository
	categorizer Categorizer
	adapters    []Adapter

	contentFetcher ContentFetcher
	contentCfg     ContentConfig

	mu  sync.Mutex
	now func() time.Time
}

type Option func(*Service)

// WithContentFetcher enables enrichment for articles whose summary is shorter
// than cfg.Threshold characters.
func WithContentFetcher(f ContentFetcher, cfg ContentConfig) Option {
	return func(s *Service) {
		if cfg.Parallelism < 1 {
			cfg.Parallelism = 1
		}
		s.contentFetcher = f
		s.contentCfg = cfg
	}
}

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the pipeline. Adapter order matters: when two adapters
// return the same URL the earlier one wins.
func NewService(repo repository.ArticleRepository, categorizer Categorizer, adapters []Adapter, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		categorizer: categorizer,
		adapters:    adapters,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest runs one cycle and returns the newly stored articles, newest first,
// truncated to limit. Every new article is persisted regardless of limit.
func (s *Service) Ingest(ctx context.Context, limit int) ([]*entity.StoredArticle, error) {
	if len(s.adapters) == 0 {
		return nil, ErrNoAdapters
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracing.GetTracer().Start(ctx, "ingest.Ingest")
	defer span.End()
	start := time.Now()

	fetched := s.fetchAll(ctx, limit)
	candidates := entity.DedupeByURL(fetched)
	sortNewestFirst(candidates)

	created, err := s.persistNew(ctx, candidates)
	duration := time.Since(start)
	span.SetAttributes(
		attribute.Int("ingest.fetched", len(candidates)),
		attribute.Int("ingest.new", len(created)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failure")
		metrics.RecordIngestCycle(false, duration, 0)
		slog.Error("ingestion cycle failed",
			slog.Int("fetched", len(candidates)),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return nil, err
	}

	metrics.RecordIngestCycle(true, duration, len(created))
	slog.Info("ingestion cycle completed",
		slog.Int("fetched", len(candidates)),
		slog.Int("new", len(created)),
		slog.Duration("duration", duration))

	if limit >= 0 && len(created) > limit {
		created = created[:limit]
	}
	return created, nil
}

// fetchAll runs every adapter concurrently and concatenates the results in
// registration order. A panicking adapter contributes nothing.
func (s *Service) fetchAll(ctx context.Context, limit int) []entity.NormalizedArticle {
	results := make([][]entity.NormalizedArticle, len(s.adapters))
	var g errgroup.Group
	for i, a := range s.adapters {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("source adapter panicked",
						slog.String("adapter", a.Name()),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
				}
			}()
			items := a.Fetch(ctx, limit)
			metrics.RecordAdapterFetched(a.Name(), len(items))
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var all []entity.NormalizedArticle
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (s *Service) persistNew(ctx context.Context, candidates []entity.NormalizedArticle) ([]*entity.StoredArticle, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	existing, err := s.repo.ExistingURLs(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("%w: existing urls: %w", ErrStorage, err)
	}

	now := s.now().UTC()
	rows := make([]*entity.StoredArticle, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.URL] {
			continue
		}
		rows = append(rows, s.toStored(c, now))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	s.enrich(ctx, rows)

	if err := s.repo.InsertAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	return rows, nil
}

func (s *Service) toStored(a entity.NormalizedArticle, now time.Time) *entity.StoredArticle {
	category := strings.TrimSpace(a.Category)
	if category == "" {
		category = s.categorizer.Categorize(a.Title, a.Summary)
	}
	published := a.PublishedAt
	if published == nil {
		published = ParsePublished(a.PublishedRaw)
	}
	return &entity.StoredArticle{
		URL:         a.URL,
		Title:       a.Title,
		Source:      a.Source,
		Content:     a.Summary,
		PublishedAt: published,
		Category:    &category,
		ImageURL:    entity.StringPtr(a.ImageURL),
		CreatedAt:   now,
	}
}

// ParsePublished parses an ISO-8601 timestamp with a Z or numeric offset.
// Anything else yields nil.
func ParsePublished(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// sortNewestFirst orders by PublishedAt descending. Undated articles sort
// after every dated one; ties keep their merge order.
func sortNewestFirst(items []entity.NormalizedArticle) {
	key := func(a entity.NormalizedArticle) *time.Time {
		if a.PublishedAt != nil {
			return a.PublishedAt
		}
		return ParsePublished(a.PublishedRaw)
	}
	keys := make(map[string]*time.Time, len(items))
	for _, it := range items {
		keys[it.URL] = key(it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := keys[items[i].URL], keys[items[j].URL]
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
