package repository

import (
	"context"

	"news-aggregator/internal/domain/entity"
)

type SavedArticleRepository interface {
	// Save is idempotent.
	Save(ctx context.Context, userID int64, articleURL string) error
	Remove(ctx context.Context, userID int64, articleURL string) (bool, error)
	// SavedURLs reports which of urls the user has saved.
	SavedURLs(ctx context.Context, userID int64, urls []string) (map[string]bool, error)
	// List returns saved articles, most recently saved first.
	List(ctx context.Context, userID int64, offset, limit int) ([]*entity.StoredArticle, error)
}
