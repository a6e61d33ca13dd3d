package repository

import (
	"context"

	"news-aggregator/internal/domain/entity"
)

// ArticleFilters narrows feed listings. Empty fields are ignored.
type ArticleFilters struct {
	Category string
	Source   string
}

type ArticleRepository interface {
	// ExistingURLs reports which of urls are already stored, in one round trip.
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	// InsertAll stores every article in a single transaction.
	// Any failure (including a duplicate url) rolls back the whole batch.
	InsertAll(ctx context.Context, articles []*entity.StoredArticle) error
	// AllArticles returns the whole store, newest first.
	AllArticles(ctx context.Context) ([]*entity.StoredArticle, error)
	// UpdateCategory is the only mutation allowed on a stored row.
	// Returns entity.ErrNotFound when url is unknown.
	UpdateCategory(ctx context.Context, url, category string) error
	// List returns a page of articles ordered by published_at DESC, nulls last.
	List(ctx context.Context, filters ArticleFilters, offset, limit int) ([]*entity.StoredArticle, error)
	Count(ctx context.Context, filters ArticleFilters) (int64, error)
	// Get returns (nil, nil) when the url is not stored.
	Get(ctx context.Context, url string) (*entity.StoredArticle, error)
	// Categories returns the distinct non-empty categories.
	Categories(ctx context.Context) ([]string, error)
	// Outlets returns the distinct source names.
	Outlets(ctx context.Context) ([]string, error)
}
