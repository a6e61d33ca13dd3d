package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

// ArticleRepo implements the ArticleRepository interface using SQLite.
type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db, queryBuilder: NewArticleQueryBuilder()}
}

// maxVars stays below SQLITE_MAX_VARIABLE_NUMBER on older builds.
const maxVars = 900

func (repo *ArticleRepo) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	for start := 0; start < len(urls); start += maxVars {
		chunk := urls[start:min(start+maxVars, len(urls))]
		args := make([]interface{}, len(chunk))
		for i, u := range chunk {
			args[i] = u
		}
		query := "SELECT url FROM articles WHERE url IN (" + placeholders(len(chunk)) + ")"
		found, err := queryStrings(ctx, repo.db, "ExistingURLs", query, args...)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			result[u] = true
		}
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

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO articles (url, title, source, content, published_at, category, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		err = fmt.Errorf("InsertAll: prepare: %w", err)
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range articles {
		_, err = stmt.ExecContext(ctx, a.URL, a.Title, a.Source, a.Content,
			nullableTime(a.PublishedAt), nullableString(a.Category), nullableString(a.ImageURL), createdAt(a.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("InsertAll: %w: %s: %v", entity.ErrConflict, a.URL, err)
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
	query, args := repo.queryBuilder.List(repository.ArticleFilters{}, 0, 0)
	return repo.queryArticles(ctx, "AllArticles", query, args...)
}

func (repo *ArticleRepo) UpdateCategory(ctx context.Context, url, category string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE articles SET category = ? WHERE url = ?`, category, url)
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
	query, args := repo.queryBuilder.List(filters, offset, limit)
	return repo.queryArticles(ctx, "List", query, args...)
}

func (repo *ArticleRepo) Count(ctx context.Context, filters repository.ArticleFilters) (int64, error) {
	query, args := repo.queryBuilder.Count(filters)
	var n int64
	if err := repo.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, url string) (*entity.StoredArticle, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE url = ?"
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
	return queryArticles(ctx, repo.db, op, query, args...)
}

func queryArticles(ctx context.Context, db *sql.DB, op, query string, args ...interface{}) ([]*entity.StoredArticle, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: QueryContext: %w", op, err)
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
		return nil, fmt.Errorf("%s: QueryContext: %w", op, err)
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

func execRemoved(ctx context.Context, db *sql.DB, op, query string, args ...interface{}) (bool, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: RowsAffected: %w", op, err)
	}
	return n > 0, nil
}
