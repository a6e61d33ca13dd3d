package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

type SavedArticleRepo struct {
	db *sql.DB
}

func NewSavedArticleRepo(db *sql.DB) repository.SavedArticleRepository {
	return &SavedArticleRepo{db: db}
}

func (repo *SavedArticleRepo) Save(ctx context.Context, userID int64, articleURL string) error {
	const query = `
INSERT INTO user_saved_articles (user_id, article_url) VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, articleURL); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *SavedArticleRepo) Remove(ctx context.Context, userID int64, articleURL string) (bool, error) {
	const query = `DELETE FROM user_saved_articles WHERE user_id = $1 AND article_url = $2`
	return execRemoved(ctx, repo.db, "Remove", query, userID, articleURL)
}

func (repo *SavedArticleRepo) SavedURLs(ctx context.Context, userID int64, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}
	const query = `
SELECT article_url FROM user_saved_articles
WHERE user_id = $1 AND article_url = ANY($2)`
	saved, err := queryStrings(ctx, repo.db, "SavedURLs", query, userID, pq.Array(urls))
	if err != nil {
		return nil, err
	}
	for _, u := range saved {
		result[u] = true
	}
	return result, nil
}

func (repo *SavedArticleRepo) List(ctx context.Context, userID int64, offset, limit int) ([]*entity.StoredArticle, error) {
	b := psql.Select(
		"a.url", "a.title", "a.source", "a.content", "a.published_at",
		"a.category", "a.image_url", "a.created_at",
	).
		From("user_saved_articles s").
		Join("articles a ON a.url = s.article_url").
		Where("s.user_id = ?", userID).
		OrderBy("s.saved_at DESC", "a.url")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("List: build: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []*entity.StoredArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return articles, nil
}
