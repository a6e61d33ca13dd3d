package http

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"news-aggregator/internal/common/pagination"
	"news-aggregator/internal/handler/http/auth"
	"news-aggregator/internal/handler/http/feed"
	"news-aggregator/internal/handler/http/middleware"
	"news-aggregator/internal/handler/http/requestid"
	"news-aggregator/internal/handler/http/respond"
	userH "news-aggregator/internal/handler/http/user"
	"news-aggregator/internal/handler/http/ws"
	"news-aggregator/internal/infra/realtime"
	"news-aggregator/internal/observability/tracing"
)

// DefaultMaxBodyBytes caps request bodies when Deps.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Registry is what the router needs from *realtime.Registry: the push
// handler registers connections and /health reports the count.
type Registry interface {
	ws.Registry
	ConnectionCounter
}

// Deps carries everything NewRouter wires. AuthLimiter may be nil to
// disable rate limiting on /token and /users/register.
type Deps struct {
	Logger  *slog.Logger
	DB      *sql.DB
	Version string

	Articles    feed.ArticleService
	Search      feed.SearchService
	SearchIndex Pinger
	Users       userH.Service
	Credentials auth.CredentialChecker
	Auth        *auth.Authenticator
	Registry    Registry

	Pagination     pagination.Config
	AuthLimiter    *middleware.RateLimiter
	WSConfig       realtime.WSConfig
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// NewRouter builds the full HTTP surface: operational endpoints at the root
// and the API under /v1.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxBodyBytes == 0 {
		d.MaxBodyBytes = DefaultMaxBodyBytes
	}
	limit := func(next http.Handler) http.Handler { return next }
	if d.AuthLimiter != nil {
		limit = d.AuthLimiter.Middleware
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		tracing.Middleware,
		Logging(d.Logger),
		Recover(d.Logger),
		Metrics,
		LimitRequestBody(d.MaxBodyBytes),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, errors.New("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.Method(http.MethodGet, "/health", &HealthHandler{DB: d.DB, Search: d.SearchIndex, Connections: d.Registry, Version: d.Version})
	r.Method(http.MethodGet, "/ready", &ReadyHandler{DB: d.DB})
	r.Method(http.MethodGet, "/live", LiveHandler{})
	r.Method(http.MethodGet, "/metrics", MetricsHandler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.With(limit).Method(http.MethodPost, "/token", auth.TokenHandler{
			Users:  d.Credentials,
			Issuer: d.Auth.Issuer,
			Logger: d.Logger,
		})
		feed.Register(v1, d.Articles, d.Search, d.Pagination, d.Auth.OptionalUser)
		userH.Register(v1, d.Users, d.Pagination, d.Auth.RequireUser, limit)
		v1.Method(http.MethodGet, "/ws", ws.Handler{
			Auth:           d.Auth,
			Registry:       d.Registry,
			Config:         d.WSConfig,
			AllowedOrigins: d.AllowedOrigins,
			Logger:         d.Logger,
		})
	})
	return r
}
