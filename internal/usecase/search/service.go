// Package search keeps the full-text index a mirror of the article store and
// answers queries against it.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/utils/text"
)

const (
	PrimaryKey     = "id"
	MinQueryLength = 2
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Index is the search engine as seen by this package.
type Index interface {
	ReplaceAll(ctx context.Context, docs []entity.SearchDocument, primaryKey string) error
	Search(ctx context.Context, query string, limit int) ([]entity.SearchDocument, error)
}

type Service struct {
	Repo  repository.ArticleRepository
	Index Index
}

func NewService(repo repository.ArticleRepository, index Index) *Service {
	return &Service{Repo: repo, Index: index}
}

// Sync replaces the index contents with a snapshot of every stored article.
func (s *Service) Sync(ctx context.Context) error {
	start := time.Now()
	articles, err := s.Repo.AllArticles(ctx)
	if err != nil {
		metrics.RecordSearchSync(false, 0)
		return fmt.Errorf("%w: load articles: %w", ErrIndexSync, err)
	}

	docs := make([]entity.SearchDocument, len(articles))
	for i, a := range articles {
		docs[i] = entity.NewSearchDocument(a)
	}

	if err := s.Index.ReplaceAll(ctx, docs, PrimaryKey); err != nil {
		metrics.RecordSearchSync(false, 0)
		return fmt.Errorf("%w: %w", ErrIndexSync, err)
	}

	metrics.RecordSearchSync(true, len(docs))
	slog.Info("search index synced",
		slog.Int("documents", len(docs)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Search queries the index. limit outside 1..MaxLimit falls back to
// DefaultLimit or is clamped to MaxLimit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]entity.SearchDocument, error) {
	query = strings.TrimSpace(query)
	if text.CountRunes(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	hits, err := s.Index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if hits == nil {
		hits = []entity.SearchDocument{}
	}
	return hits, nil
}
