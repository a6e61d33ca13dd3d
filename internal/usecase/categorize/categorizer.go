// Package categorize assigns a topical category to an article from its text.
//
// Scoring is keyword based. For every category, each keyword that appears in
// the lower-cased "title content" text adds 2 when it matches as a whole word
// and 1 when it only appears inside a longer word. The highest total wins and
// ties go to the category listed first. Text that scores zero everywhere is
// filed under entity.DefaultCategory.
package categorize

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"news-aggregator/internal/domain/entity"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// Table is the on-disk keyword configuration. Categories are kept in file order.
type Table struct {
	Categories []CategoryKeywords `yaml:"categories"`
}

// CategoryKeywords lists the keywords that vote for one category.
type CategoryKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type keyword struct {
	text string
	word *regexp.Regexp
}

type category struct {
	name     string
	keywords []keyword
}

// Categorizer is immutable after construction and safe for concurrent use.
type Categorizer struct {
	categories []category
}

// New compiles a keyword table.
func New(table Table) (*Categorizer, error) {
	if len(table.Categories) == 0 {
		return nil, errors.New("categorize: keyword table has no categories")
	}

	seen := make(map[string]bool, len(table.Categories))
	c := &Categorizer{categories: make([]category, 0, len(table.Categories))}
	for _, tc := range table.Categories {
		name := strings.TrimSpace(tc.Name)
		if name == "" {
			return nil, errors.New("categorize: category with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("categorize: duplicate category %q", name)
		}
		seen[name] = true

		cat := category{name: name}
		for _, kw := range tc.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			cat.keywords = append(cat.keywords, keyword{
				text: kw,
				word: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Parse builds a Categorizer from YAML.
func Parse(data []byte) (*Categorizer, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("categorize: parse keywords: %w", err)
	}
	return New(table)
}

// Default returns the Categorizer for the embedded keyword table.
func Default() *Categorizer {
	c, err := Parse(defaultKeywords)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFromEnv reads CATEGORY_KEYWORDS_FILE when set. A missing or invalid
// file is logged and the embedded table is used instead.
func LoadFromEnv() *Categorizer {
	path := os.Getenv("CATEGORY_KEYWORDS_FILE")
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
	if err != nil {
		slog.Warn("keyword file unreadable, using built-in table",
			slog.String("path", path), slog.Any("error", err))
		return Default()
	}
	c, err := Parse(data)
	if err != nil {
		slog.Warn("keyword file invalid, using built-in table",
			slog.String("path", path), slog.Any("error", err))
		return Default()
	}
	slog.Info("loaded category keywords", slog.String("path", path),
		slog.Int("categories", len(c.categories)))
	return c
}

// Categorize never fails. It returns entity.DefaultCategory when nothing matches.
func (c *Categorizer) Categorize(title, content string) string {
	text := strings.ToLower(title + " " + content)

	best, bestScore := entity.DefaultCategory, 0
	for _, cat := range c.categories {
		score := 0
		for _, kw := range cat.keywords {
			switch {
			case kw.word.MatchString(text):
				score += 2
			case strings.Contains(text, kw.text):
				score++
			}
		}
		if score > bestScore {
			best, bestScore = cat.name, score
		}
	}
	return best
}

// Categories returns the category names in tie-break order.
func (c *Categorizer) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.name
	}
	return names
}
