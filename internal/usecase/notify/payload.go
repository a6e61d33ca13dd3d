package notify

import (
	"fmt"
	"time"

	"news-aggregator/internal/domain/entity"
)

// maxArticlesPerMessage caps the article list in a personalized message.
const maxArticlesPerMessage = 5

// ArticleItem is the article shape pushed to clients.
type ArticleItem struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

// PersonalizedMessage is sent to one user's connections.
type PersonalizedMessage struct {
	Type     string        `json:"type"`
	UserID   int64         `json:"user_id"`
	Articles []ArticleItem `json:"articles"`
	Count    int           `json:"count"`
	Message  string        `json:"message"`
}

// BroadcastMessage goes to every connection.
type BroadcastMessage struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func newPersonalizedMessage(userID int64, relevant []*entity.StoredArticle) PersonalizedMessage {
	shown := relevant
	if len(shown) > maxArticlesPerMessage {
		shown = shown[:maxArticlesPerMessage]
	}
	items := make([]ArticleItem, len(shown))
	for i, a := range shown {
		items[i] = ArticleItem{
			URL:         a.URL,
			Title:       a.Title,
			Source:      a.Source,
			Category:    a.CategoryOrEmpty(),
			ImageURL:    a.ImageURLOrEmpty(),
			PublishedAt: a.PublishedAt,
		}
	}
	return PersonalizedMessage{
		Type:     "personalized_articles",
		UserID:   userID,
		Articles: items,
		Count:    len(relevant),
		Message:  fmt.Sprintf("You have %d new articles from your followed topics/outlets!", len(relevant)),
	}
}
