// Package feed serves the public read endpoints: the article feed, the
// category and outlet lists, and full-text search.
package feed

import (
	"time"

	"news-aggregator/internal/domain/entity"
)

// ArticleDTO is the wire shape of a stored article.
type ArticleDTO struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	Content     string     `json:"content,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
	Category    *string    `json:"category"`
	ImageURL    *string    `json:"image_url"`
	IsSaved     *bool      `json:"is_saved,omitempty"`
}

func NewArticleDTO(a *entity.StoredArticle) ArticleDTO {
	return ArticleDTO{
		URL:         a.URL,
		Title:       a.Title,
		Source:      a.Source,
		Content:     a.Content,
		PublishedAt: a.PublishedAt,
		Category:    a.Category,
		ImageURL:    a.ImageURL,
	}
}

// SearchHitDTO is one search result.
type SearchHitDTO struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	Content     string     `json:"content,omitempty"`
	Category    string     `json:"category,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

func newSearchHitDTO(d entity.SearchDocument) SearchHitDTO {
	return SearchHitDTO{
		URL:         d.URL,
		Title:       d.Title,
		Source:      d.Source,
		Content:     d.Content,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		PublishedAt: d.PublishedAt,
	}
}
