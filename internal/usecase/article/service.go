package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"news-aggregator/internal/common/pagination"
	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

const maxFilterLength = 200

// FeedItem is a stored article as seen by one reader.
type FeedItem struct {
	Article *entity.StoredArticle
	IsSaved bool
}

// FeedPage is one page of the feed together with its metadata.
type FeedPage struct {
	Items      []FeedItem
	Pagination pagination.Metadata
}

// FeedQuery selects a page of the feed. UserID is nil for anonymous readers.
type FeedQuery struct {
	Filters repository.ArticleFilters
	Page    pagination.Params
	UserID  *int64
}

// Categorizer is satisfied by *categorize.Categorizer.
type Categorizer interface {
	Categorize(title, content string) string
}

// Service provides article read use cases.
type Service struct {
	Repo  repository.ArticleRepository
	Saved repository.SavedArticleRepository
}

// Feed returns the latest stored articles, newest first, with is_saved
// populated when the reader is known.
func (s *Service) Feed(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	q.Filters.Category = strings.TrimSpace(q.Filters.Category)
	q.Filters.Source = strings.TrimSpace(q.Filters.Source)
	if len(q.Filters.Category) > maxFilterLength || len(q.Filters.Source) > maxFilterLength {
		return nil, ErrInvalidFilter
	}

	total, err := s.Repo.Count(ctx, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	articles, err := s.Repo.List(ctx, q.Filters, q.Page.Offset(), q.Page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	saved := map[string]bool{}
	if q.UserID != nil && s.Saved != nil && len(articles) > 0 {
		urls := make([]string, len(articles))
		for i, a := range articles {
			urls[i] = a.URL
		}
		saved, err = s.Saved.SavedURLs(ctx, *q.UserID, urls)
		if err != nil {
			return nil, fmt.Errorf("saved urls: %w", err)
		}
	}

	items := make([]FeedItem, len(articles))
	for i, a := range articles {
		items[i] = FeedItem{Article: a, IsSaved: saved[a.URL]}
	}
	return &FeedPage{
		Items:      items,
		Pagination: pagination.NewMetadata(q.Page, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, url string) (*entity.StoredArticle, error) {
	a, err := s.Repo.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if a == nil {
		return nil, entity.ErrNotFound
	}
	return a, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.Repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return cats, nil
}

func (s *Service) Outlets(ctx context.Context) ([]string, error) {
	outlets, err := s.Repo.Outlets(ctx)
	if err != nil {
		return nil, fmt.Errorf("outlets: %w", err)
	}
	return outlets, nil
}

// RecategorizeResult summarises one recategorize run.
type RecategorizeResult struct {
	Scanned   int
	Updated   int
	Unchanged int
}

// Recategorize recomputes categories from title and content. Unless all is
// set only rows without a category are touched. Rows whose category would not
// change are left alone.
func (s *Service) Recategorize(ctx context.Context, c Categorizer, all bool) (RecategorizeResult, error) {
	var res RecategorizeResult

	articles, err := s.Repo.AllArticles(ctx)
	if err != nil {
		return res, fmt.Errorf("load articles: %w", err)
	}

	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		current := a.CategoryOrEmpty()
		if !all && current != "" {
			continue
		}
		res.Scanned++

		next := c.Categorize(a.Title, a.Content)
		if next == "" {
			return res, fmt.Errorf("%w: empty category for %s", ErrInvalidCategory, a.URL)
		}
		if next == current {
			res.Unchanged++
			continue
		}
		if err := s.Repo.UpdateCategory(ctx, a.URL, next); err != nil {
			return res, fmt.Errorf("update category %s: %w", a.URL, err)
		}
		slog.DebugContext(ctx, "article recategorized",
			slog.String("url", a.URL),
			slog.String("from", current),
			slog.String("to", next))
		res.Updated++
	}
	return res, nil
}
