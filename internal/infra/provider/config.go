package provider

import (
	"time"

	pkgconfig "news-aggregator/pkg/config"
)

// DefaultNewsAPIURL is the top-headlines endpoint.
const DefaultNewsAPIURL = "https://newsapi.org/v2/top-headlines"

// DefaultNewsAPICategories are queried one request each.
var DefaultNewsAPICategories = []string{
	"technology", "business", "sports", "science", "health", "entertainment", "general",
}

// DefaultNewsAPISources are the outlets queried by source id.
var DefaultNewsAPISources = []string{
	"the-guardian-uk", "reuters", "deutsche-welle", "bbc-news", "cnn",
	"the-new-york-times", "the-washington-post", "al-jazeera-english", "npr", "politico",
	"techcrunch", "ars-technica", "wired", "the-verge", "engadget",
	"venturebeat", "bloomberg", "financial-times", "the-economist", "nature",
	"science",
}

// DefaultRSSFeeds is used when RSS_FEEDS is not set.
var DefaultRSSFeeds = []string{
	"https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml",
	"https://feeds.bbci.co.uk/news/world/rss.xml",
}

// NewsAPIConfig configures the NewsAPI adapter.
type NewsAPIConfig struct {
	APIKey     string
	BaseURL    string
	Country    string
	Categories []string
	Sources    []string
	// SourceBatchSize is the number of source ids per request. NewsAPI accepts at most 20.
	SourceBatchSize int
	Timeout         time.Duration
	RatePerSecond   int
	MaxConcurrent   int
}

// DefaultNewsAPIConfig returns the production defaults without an API key.
func DefaultNewsAPIConfig() NewsAPIConfig {
	return NewsAPIConfig{
		BaseURL:         DefaultNewsAPIURL,
		Country:         "us",
		Categories:      DefaultNewsAPICategories,
		Sources:         DefaultNewsAPISources,
		SourceBatchSize: 20,
		Timeout:         30 * time.Second,
		RatePerSecond:   5,
		MaxConcurrent:   defaultMaxConcurrent,
	}
}

// LoadNewsAPIConfig reads NEWSAPI_* variables on top of the defaults.
func LoadNewsAPIConfig() NewsAPIConfig {
	cfg := DefaultNewsAPIConfig()
	cfg.APIKey = pkgconfig.GetEnvString("NEWSAPI_KEY", "")
	cfg.BaseURL = pkgconfig.GetEnvString("NEWSAPI_URL", cfg.BaseURL)
	cfg.Country = pkgconfig.GetEnvString("NEWSAPI_COUNTRY", cfg.Country)
	cfg.Categories = pkgconfig.GetEnvStringList("NEWSAPI_CATEGORIES", cfg.Categories)
	cfg.Sources = pkgconfig.GetEnvStringList("NEWSAPI_SOURCES", cfg.Sources)
	cfg.Timeout = pkgconfig.GetEnvDuration("NEWSAPI_TIMEOUT", cfg.Timeout)
	if rps := pkgconfig.GetEnvInt("NEWSAPI_RATE_PER_SECOND", cfg.RatePerSecond); rps > 0 {
		cfg.RatePerSecond = rps
	}
	return cfg
}

// RSSConfig configures the RSS adapter.
type RSSConfig struct {
	Feeds         []string
	Timeout       time.Duration
	UserAgent     string
	MaxConcurrent int
}

// DefaultRSSConfig returns the production defaults.
func DefaultRSSConfig() RSSConfig {
	return RSSConfig{
		Feeds:         DefaultRSSFeeds,
		Timeout:       10 * time.Second,
		UserAgent:     "NewsAggregatorBot/1.0",
		MaxConcurrent: defaultMaxConcurrent,
	}
}

// LoadRSSConfig reads RSS_FEEDS and RSS_TIMEOUT on top of the defaults.
func LoadRSSConfig() RSSConfig {
	cfg := DefaultRSSConfig()
	cfg.Feeds = pkgconfig.GetEnvStringList("RSS_FEEDS", cfg.Feeds)
	cfg.Timeout = pkgconfig.GetEnvDuration("RSS_TIMEOUT", cfg.Timeout)
	return cfg
}
