package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

// insertBatchSize keeps each multi-row INSERT well under the 65535 bind-parameter cap.
const insertBatchSize = 500

type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{
		db:           db,
		queryBuilder: NewArticleQueryBuilder(),
	}
}

func (repo *ArticleRepo) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	const query = `SELECT url FROM articles WHERE url = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistingURLs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistingURLs: Scan: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistingURLs: rows: %w", err)
	}
	return result, nil
}

func (repo *ArticleRepo) InsertAll(ctx context.Context, articles []*entity.StoredArticle) (err error) {
	if len(articles) == 0 {
		return nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertAll: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(articles); start += insertBatchSize {
		end := min(start+insertBatchSize, len(articles))

		b := psql.Insert("articles").
			Columns("url", "title", "source", "content", "published_at", "category", "image_url", "created_at")
		for _, a := range articles[start:end] {
			b = b.Values(a.URL, a.Title, a.Source, a.Content,
				nullableTime(a.PublishedAt), nullableString(a.Category), nullableString(a.ImageURL), createdAt(a.CreatedAt))
		}
		query, args, buildErr := b.ToSql()
		if buildErr != nil {
			err = fmt.Errorf("InsertAll: build: %w", buildErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("InsertAll: %w: %v", entity.ErrConflict, err)
				return err
			}
			err = fmt.Errorf("InsertAll: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("InsertAll: commit: %w", err)
		return err
	}
	return nil
}

func (repo *ArticleRepo) AllArticles(ctx context.Context) ([]*entity.StoredArticle, error) {
	const query = `
SELECT url, title, source, content, published_at, category, image_url, created_at
FROM articles
ORDER BY published_at DESC NULLS LAST, created_at DESC`
	return repo.queryArticles(ctx, "AllArticles", query)
}

func (repo *ArticleRepo) UpdateCategory(ctx context.Context, url, category string) error {
	const query = `UPDATE articles SET category = $1 WHERE url = $2`
	res, err := repo.db.ExecContext(ctx, query, category, url)
	if err != nil {
		return fmt.Errorf("UpdateCategory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateCategory: RowsAffected: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *ArticleRepo) List(ctx context.Context, filters repository.ArticleFilters, offset, limit int) ([]*entity.StoredArticle, error) {
	query, args, err := repo.queryBuilder.List(filters, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("List: build: %w", err)
	}
	return repo.queryArticles(ctx, "List", query, args...)
}

func (repo *ArticleRepo) Count(ctx context.Context, filters repository.ArticleFilters) (int64, error) {
	query, args, err := repo.queryBuilder.Count(filters)
	if err != nil {
		return 0, fmt.Errorf("Count: build: %w", err)
	}
	var n int64
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, url string) (*entity.StoredArticle, error) {
	const query = `
SELECT url, title, source, content, published_at, category, image_url, created_at
FROM articles
WHERE url = $1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) Categories(ctx context.Context) ([]string, error) {
	const query = `
SELECT DISTINCT category FROM articles
WHERE category IS NOT NULL AND category <> ''
ORDER BY category`
	return queryStrings(ctx, repo.db, "Categories", query)
}

func (repo *ArticleRepo) Outlets(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT source FROM articles WHERE source <> '' ORDER BY source`
	return queryStrings(ctx, repo.db, "Outlets", query)
}

func (repo *ArticleRepo) queryArticles(ctx context.Context, op, query string, args ...interface{}) ([]*entity.StoredArticle, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.StoredArticle, 0, 64)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return articles, nil
}

func queryStrings(ctx context.Context, db *sql.DB, op, query string, args ...interface{}) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]string, 0, 16)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}
