// Package entity defines the core domain types shared by every layer:
// articles as produced by providers and as persisted, users, and their
// follow/save edges.
package entity

import "time"

// Source types tag which adapter produced a NormalizedArticle.
const (
	SourceTypeNewsAPI = "newsapi"
	SourceTypeRSS     = "rss"
)

// DefaultCategory is assigned when nothing else matches.
const DefaultCategory = "General"

// NormalizedArticle is the provider-neutral record every source adapter emits.
// URL is the identity: two records with the same URL are the same article.
type NormalizedArticle struct {
	URL         string
	Title       string
	Source      string
	PublishedAt *time.Time
	// PublishedRaw keeps the provider's timestamp text when the adapter did not
	// parse it itself.
	PublishedRaw string
	Summary      string
	Category     string
	ImageURL     string
	SourceType   string
}

// StoredArticle is a persisted article row keyed by URL.
type StoredArticle struct {
	URL         string
	Title       string
	Source      string
	Content     string
	PublishedAt *time.Time
	Category    *string
	ImageURL    *string
	CreatedAt   time.Time
}

// CategoryOrEmpty returns the category or "" when unset.
func (a *StoredArticle) CategoryOrEmpty() string {
	if a.Category == nil {
		return ""
	}
	return *a.Category
}

// ImageURLOrEmpty returns the image URL or "" when unset.
func (a *StoredArticle) ImageURLOrEmpty() string {
	if a.ImageURL == nil {
		return ""
	}
	return *a.ImageURL
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DedupeByURL keeps the first article seen for every URL, preserving order.
func DedupeByURL(articles []NormalizedArticle) []NormalizedArticle {
	seen := make(map[string]struct{}, len(articles))
	out := make([]NormalizedArticle, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}
