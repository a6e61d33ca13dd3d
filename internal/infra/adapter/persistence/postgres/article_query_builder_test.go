package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/repository"
)

func TestArticleQueryBuilder_List(t *testing.T) {
	qb := NewArticleQueryBuilder()

	tests := []struct {
		name     string
		filters  repository.ArticleFilters
		offset   int
		limit    int
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "no filters",
			limit:   20,
			wantSQL: "SELECT url, title, source, content, published_at, category, image_url, created_at FROM articles ORDER BY published_at DESC NULLS LAST, created_at DESC, url LIMIT 20",
		},
		{
			name:     "category and source",
			filters:  repository.ArticleFilters{Category: "Sports", Source: "ESPN"},
			offset:   40,
			limit:    20,
			wantSQL:  "SELECT url, title, source, content, published_at, category, image_url, created_at FROM articles WHERE category = $1 AND source = $2 ORDER BY published_at DESC NULLS LAST, created_at DESC, url LIMIT 20 OFFSET 40",
			wantArgs: []interface{}{"Sports", "ESPN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := qb.List(tt.filters, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestArticleQueryBuilder_Count(t *testing.T) {
	qb := NewArticleQueryBuilder()

	query, args, err := qb.Count(repository.ArticleFilters{Category: "Health"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM articles WHERE category = $1", query)
	assert.Equal(t, []interface{}{"Health"}, args)
}
