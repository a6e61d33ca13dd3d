// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	sq "github.com/Masterminds/squirrel"

	"news-aggregator/internal/repository"
)

// psql renders $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"url", "title", "source", "content", "published_at", "category", "image_url", "created_at",
}

// ArticleQueryBuilder builds the filtered SELECT and COUNT statements used by
// feed listings. Both share the same WHERE clause.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

func (qb *ArticleQueryBuilder) where(b sq.SelectBuilder, f repository.ArticleFilters) sq.SelectBuilder {
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": f.Category})
	}
	if f.Source != "" {
		b = b.Where(sq.Eq{"source": f.Source})
	}
	return b
}

// List returns the paginated SELECT ordered newest first, undated rows last.
func (qb *ArticleQueryBuilder) List(f repository.ArticleFilters, offset, limit int) (string, []interface{}, error) {
	b := qb.where(psql.Select(articleColumns...).From("articles"), f).
		OrderBy("published_at DESC NULLS LAST", "created_at DESC", "url")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b.ToSql()
}

// Count returns the COUNT(*) statement for the same filters.
func (qb *ArticleQueryBuilder) Count(f repository.ArticleFilters) (string, []interface{}, error) {
	return qb.where(psql.Select("COUNT(*)").From("articles"), f).ToSql()
}
