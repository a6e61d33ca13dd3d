package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

type SavedArticleRepo struct{ db *sql.DB }

func NewSavedArticleRepo(db *sql.DB) repository.SavedArticleRepository {
	return &SavedArticleRepo{db: db}
}

func (repo *SavedArticleRepo) Save(ctx context.Context, userID int64, articleURL string) error {
	const query = `INSERT OR IGNORE INTO user_saved_articles (user_id, article_url) VALUES (?, ?)`
	if _, err := repo.db.ExecContext(ctx, query, userID, articleURL); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *SavedArticleRepo) Remove(ctx context.Context, userID int64, articleURL string) (bool, error) {
	return execRemoved(ctx, repo.db, "Remove",
		`DELETE FROM user_saved_articles WHERE user_id = ? AND article_url = ?`, userID, articleURL)
}

func (repo *SavedArticleRepo) SavedURLs(ctx context.Context, userID int64, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	for start := 0; start < len(urls); start += maxVars {
		chunk := urls[start:min(start+maxVars, len(urls))]
		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, userID)
		for _, u := range chunk {
			args = append(args, u)
		}
		query := "SELECT article_url FROM user_saved_articles WHERE user_id = ? AND article_url IN (" +
			placeholders(len(chunk)) + ")"
		saved, err := queryStrings(ctx, repo.db, "SavedURLs", query, args...)
		if err != nil {
			return nil, err
		}
		for _, u := range saved {
			result[u] = true
		}
	}
	return result, nil
}

func (repo *SavedArticleRepo) List(ctx context.Context, userID int64, offset, limit int) ([]*entity.StoredArticle, error) {
	query := `
SELECT a.url, a.title, a.source, a.content, a.published_at, a.category, a.image_url, a.created_at
FROM user_saved_articles s
JOIN articles a ON a.url = s.article_url
WHERE s.user_id = ?
ORDER BY s.saved_at DESC, s.rowid DESC`
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
		if offset > 0 {
			query += " OFFSET " + strconv.Itoa(offset)
		}
	}
	return queryArticles(ctx, repo.db, "List", query, userID)
}
