package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"news-aggregator/internal/common/pagination"
	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/handler/http/auth"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/repository"
	artUC "news-aggregator/internal/usecase/article"
	searchUC "news-aggregator/internal/usecase/search"
)

// ArticleService is the subset of *article.Service the handlers need.
type ArticleService interface {
	Feed(ctx context.Context, q artUC.FeedQuery) (*artUC.FeedPage, error)
	Categories(ctx context.Context) ([]string, error)
	Outlets(ctx context.Context) ([]string, error)
}

type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]entity.SearchDocument, error)
}

// FeedHandler serves GET /v1/feed.
type FeedHandler struct {
	Svc           ArticleService
	PaginationCfg pagination.Config
}

func (h FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	logger := logging.FromContext(ctx)

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		pagination.RecordError("validation")
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	q := artUC.FeedQuery{
		Filters: repository.ArticleFilters{
			Category: r.URL.Query().Get("category"),
			Source:   r.URL.Query().Get("source"),
		},
		Page: params,
	}
	if u := auth.UserFromContext(ctx); u != nil {
		q.UserID = &u.ID
	}

	page, err := h.Svc.Feed(ctx, q)
	if errors.Is(err, artUC.ErrInvalidFilter) {
		pagination.RecordError("validation")
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		pagination.RecordError("database")
		logger.Error("feed query failed", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]ArticleDTO, len(page.Items))
	for i, item := range page.Items {
		dtos[i] = NewArticleDTO(item.Article)
		if q.UserID != nil {
			saved := item.IsSaved
			dtos[i].IsSaved = &saved
		}
	}

	pagination.RecordRequest(http.StatusOK, params.Page)
	logger.Debug("feed served",
		slog.Int("page", params.Page),
		slog.Int("returned", len(dtos)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	respond.JSON(w, http.StatusOK, pagination.NewResponse(dtos, page.Pagination))
}

// CategoriesHandler serves GET /v1/categories.
type CategoriesHandler struct{ Svc ArticleService }

func (h CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Svc.Categories(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"categories": nonNil(cats)})
}

// OutletsHandler serves GET /v1/outlets.
type OutletsHandler struct{ Svc ArticleService }

func (h OutletsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.Svc.Outlets(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"outlets": nonNil(outlets)})
}

// SearchHandler serves GET /v1/search?q=&limit=.
type SearchHandler struct{ Svc SearchService }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, errors.New("invalid query parameter: limit must be a positive integer"))
			return
		}
		limit = n
	}

	hits, err := h.Svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if errors.Is(err, searchUC.ErrQueryTooShort) {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("search failed", slog.Any("error", err))
		respond.Fail(w, http.StatusBadGateway, respond.NewAppError(http.StatusBadGateway, "search is unavailable", err))
		return
	}

	dtos := make([]SearchHitDTO, len(hits))
	for i, d := range hits {
		dtos[i] = newSearchHitDTO(d)
	}
	respond.JSON(w, http.StatusOK, map[string]any{"query": r.URL.Query().Get("q"), "results": dtos})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
