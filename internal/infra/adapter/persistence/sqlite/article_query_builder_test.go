package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"news-aggregator/internal/repository"
)

func TestArticleQueryBuilder_BuildWhereClause(t *testing.T) {
	qb := NewArticleQueryBuilder()

	tests := []struct {
		name       string
		filters    repository.ArticleFilters
		wantClause string
		wantArgs   []interface{}
	}{
		{"empty", repository.ArticleFilters{}, "", nil},
		{"category", repository.ArticleFilters{Category: "Sports"}, "WHERE category = ?", []interface{}{"Sports"}},
		{"both", repository.ArticleFilters{Category: "Sports", Source: "ESPN"},
			"WHERE category = ? AND source = ?", []interface{}{"Sports", "ESPN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := qb.BuildWhereClause(tt.filters)
			assert.Equal(t, tt.wantClause, clause)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestArticleQueryBuilder_List(t *testing.T) {
	qb := NewArticleQueryBuilder()

	query, args := qb.List(repository.ArticleFilters{Source: "BBC"}, 20, 10)
	assert.Equal(t,
		"SELECT "+articleColumns+" FROM articles WHERE source = ? ORDER BY published_at DESC, created_at DESC, url LIMIT 10 OFFSET 20",
		query)
	assert.Equal(t, []interface{}{"BBC"}, args)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
