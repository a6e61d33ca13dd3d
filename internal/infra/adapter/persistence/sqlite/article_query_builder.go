// Package sqlite provides SQLite implementations of repository interfaces.
package sqlite

import (
	"strconv"
	"strings"

	"news-aggregator/internal/repository"
)

const articleColumns = `url, title, source, content, published_at, category, image_url, created_at`

// ArticleQueryBuilder builds WHERE clauses for feed listings.
// The same clause is shared between COUNT and SELECT queries.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause returns an empty clause when no filter is set.
func (qb *ArticleQueryBuilder) BuildWhereClause(filters repository.ArticleFilters) (clause string, args []interface{}) {
	var conditions []string

	if filters.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filters.Category)
	}
	if filters.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filters.Source)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns the paginated SELECT. SQLite sorts NULL lowest, so DESC
// already places undated rows last.
func (qb *ArticleQueryBuilder) List(filters repository.ArticleFilters, offset, limit int) (string, []interface{}) {
	where, args := qb.BuildWhereClause(filters)

	var b strings.Builder
	b.WriteString("SELECT " + articleColumns + " FROM articles")
	if where != "" {
		b.WriteString(" " + where)
	}
	b.WriteString(" ORDER BY published_at DESC, created_at DESC, url")
	if limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(limit))
		if offset > 0 {
			b.WriteString(" OFFSET " + strconv.Itoa(offset))
		}
	}
	return b.String(), args
}

// Count returns the COUNT(*) statement for the same filters.
func (qb *ArticleQueryBuilder) Count(filters repository.ArticleFilters) (string, []interface{}) {
	where, args := qb.BuildWhereClause(filters)
	if where == "" {
		return "SELECT COUNT(*) FROM articles", args
	}
	return "SELECT COUNT(*) FROM articles " + where, args
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
