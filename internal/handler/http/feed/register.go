package feed

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"news-aggregator/internal/common/pagination"
)

// Register mounts the public read routes. optionalAuth attaches the caller
// when a bearer token is sent so the feed can report is_saved.
func Register(r chi.Router, articles ArticleService, search SearchService, cfg pagination.Config, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Method(http.MethodGet, "/feed", FeedHandler{Svc: articles, PaginationCfg: cfg})
	r.Method(http.MethodGet, "/categories", CategoriesHandler{Svc: articles})
	r.Method(http.MethodGet, "/outlets", OutletsHandler{Svc: articles})
	r.Method(http.MethodGet, "/search", SearchHandler{Svc: search})
}
