package entity

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// SearchDocument is the flat shape of an article in the search index.
type SearchDocument struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

// DocumentID derives the index key for an article URL: the lowercase hex MD5
// digest. Raw URLs contain characters the index rejects as document ids.
func DocumentID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// NewSearchDocument flattens a stored article.
func NewSearchDocument(a *StoredArticle) SearchDocument {
	return SearchDocument{
		ID:          DocumentID(a.URL),
		URL:         a.URL,
		Title:       a.Title,
		Source:      a.Source,
		Content:     a.Content,
		Category:    a.CategoryOrEmpty(),
		ImageURL:    a.ImageURLOrEmpty(),
		PublishedAt: a.PublishedAt,
	}
}
