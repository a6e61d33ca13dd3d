package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"news-aggregator/internal/common/pagination"
	hhttp "news-aggregator/internal/handler/http"
	hauth "news-aggregator/internal/handler/http/auth"
	"news-aggregator/internal/handler/http/middleware"
	pgRepo "news-aggregator/internal/infra/adapter/persistence/postgres"
	liteRepo "news-aggregator/internal/infra/adapter/persistence/sqlite"
	"news-aggregator/internal/infra/db"
	"news-aggregator/internal/infra/fetcher"
	"news-aggregator/internal/infra/provider"
	"news-aggregator/internal/infra/realtime"
	"news-aggregator/internal/infra/search"
	"news-aggregator/internal/infra/worker"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/observability/tracing"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/resilience/retry"
	artUC "news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/categorize"
	"news-aggregator/internal/usecase/cycle"
	ingestUC "news-aggregator/internal/usecase/ingest"
	notifyUC "news-aggregator/internal/usecase/notify"
	searchUC "news-aggregator/internal/usecase/search"
	userUC "news-aggregator/internal/usecase/user"
	"news-aggregator/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	secret := validateJWTSecret(logger)
	shutdownTracing := tracing.Init(sampleRatio())

	driver := db.DriverFromEnv()
	database := initDatabase(logger, driver)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	app := buildApp(logger, database, driver, secret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, logger, app)

	tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
}

// validateJWTSecret enforces at least 32 characters (256 bits) and rejects
// a secret made of one repeated character.
func validateJWTSecret(logger *slog.Logger) string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	if len(secret) < hauth.MinSecretLength {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	if strings.Count(secret, secret[:1]) == len(secret) {
		logger.Error("JWT_SECRET must not be a single repeated character")
		os.Exit(1)
	}
	return secret
}

func sampleRatio() float64 {
	v, err := strconv.ParseFloat(config.GetEnvString("TRACING_SAMPLE_RATIO", "1"), 64)
	if err != nil || v < 0 || v > 1 {
		return 1
	}
	return v
}

func initDatabase(logger *slog.Logger, driver string) *sql.DB {
	database, err := db.Open(driver)
	if err != nil {
		logger.Error("failed to open database", slog.String("driver", driver), slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, driver); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready", slog.String("driver", driver))
	return database
}

type repositories struct {
	Articles repository.ArticleRepository
	Users    repository.UserRepository
	Saved    repository.SavedArticleRepository
	Follows  repository.FollowRepository
}

func newRepositories(database *sql.DB, driver string) repositories {
	if driver == db.DriverSQLite {
		return repositories{
			Articles: liteRepo.NewArticleRepo(database),
			Users:    liteRepo.NewUserRepo(database),
			Saved:    liteRepo.NewSavedArticleRepo(database),
			Follows:  liteRepo.NewFollowRepo(database),
		}
	}
	return repositories{
		Articles: pgRepo.NewArticleRepo(database),
		Users:    pgRepo.NewUserRepo(database),
		Saved:    pgRepo.NewSavedArticleRepo(database),
		Follows:  pgRepo.NewFollowRepo(database),
	}
}

type app struct {
	server    *http.Server
	registry  *realtime.Registry
	runner    *cycle.Runner
	scheduler *worker.Scheduler
}

func buildApp(logger *slog.Logger, database *sql.DB, driver, secret string) *app {
	repos := newRepositories(database, driver)

	// Sources, in dedup priority order.
	adapters := []ingestUC.Adapter{
		provider.NewNewsAPIAdapter(provider.LoadNewsAPIConfig(), nil),
		provider.NewRSSAdapter(provider.LoadRSSConfig(), nil),
	}
	var opts []ingestUC.Option
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid content fetch configuration, enrichment disabled", slog.Any("error", err))
	} else if fetchCfg.Enabled {
		opts = append(opts, ingestUC.WithContentFetcher(fetcher.NewReadabilityFetcher(fetchCfg), ingestUC.ContentConfig{
			Threshold:   fetchCfg.Threshold,
			Parallelism: fetchCfg.Parallelism,
		}))
		logger.Info("content enrichment enabled", slog.Int("threshold", fetchCfg.Threshold))
	}
	ingester := ingestUC.NewService(repos.Articles, categorize.LoadFromEnv(), adapters, opts...)

	index := search.NewClient(search.LoadConfig(), nil)
	searchSvc := searchUC.NewService(repos.Articles, index)

	workerMetrics := worker.NewMetrics()
	workerCfg := worker.LoadConfigFromEnv(logger, workerMetrics)

	registry := realtime.NewRegistry()
	notifier := notifyUC.NewService(repos.Users, repos.Follows, registry, workerCfg.NotifyMaxConcurrent)

	articleSvc := &artUC.Service{Repo: repos.Articles, Saved: repos.Saved}
	userSvc := &userUC.Service{
		Users:    repos.Users,
		Follows:  repos.Follows,
		Saved:    repos.Saved,
		Articles: repos.Articles,
	}

	issuer, err := hauth.NewIssuer(secret, config.GetEnvDuration("ACCESS_TOKEN_TTL", hauth.DefaultTokenTTL))
	if err != nil {
		logger.Error("failed to create token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	extractor, err := middleware.ExtractorFromEnv()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}
	authLimiter := middleware.NewRateLimiter("auth",
		max(config.GetEnvInt("AUTH_RATE_LIMIT", 5), 1),
		config.GetEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		extractor)

	handler := hhttp.NewRouter(hhttp.Deps{
		Logger:         logger,
		DB:             database,
		Version:        config.GetEnvString("VERSION", "dev"),
		Articles:       articleSvc,
		Search:         searchSvc,
		SearchIndex:    index,
		Users:          userSvc,
		Credentials:    userSvc,
		Auth:           &hauth.Authenticator{Issuer: issuer, Users: userSvc},
		Registry:       registry,
		Pagination:     pagination.LoadFromEnv(),
		AuthLimiter:    authLimiter,
		WSConfig:       realtime.DefaultWSConfig(),
		AllowedOrigins: config.GetEnvStringList("WS_ALLOWED_ORIGINS", nil),
	})

	runner := &cycle.Runner{
		Ingest:   ingester,
		Notify:   notifier,
		Index:    searchSvc,
		Articles: repos.Articles,
		Limit:    workerCfg.Limit,
		Logger:   logger,
	}
	scheduler, err := worker.New(workerCfg, func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}, logger, workerMetrics)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	return &app{
		server: &http.Server{
			Addr:              config.GetEnvString("HTTP_ADDR", ":8080"),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		registry:  registry,
		runner:    runner,
		scheduler: scheduler,
	}
}

// run serves HTTP, syncs the search index, starts the schedule and blocks
// until ctx is cancelled, then shuts everything down in reverse order.
func run(ctx context.Context, logger *slog.Logger, a *app) {
	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// A failed sync is logged by the runner; the schedule starts regardless.
	_ = a.runner.SyncOnStartup(ctx, retry.IndexStartupConfig())
	if ctx.Err() == nil {
		a.scheduler.Start(ctx)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-serverErr:
		if ok {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.scheduler.Stop(sctx)
	// Websocket connections are hijacked and ignored by Shutdown.
	a.registry.CloseAll()
	if err := a.server.Shutdown(sctx); err != nil {
		logger.Error("http server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
