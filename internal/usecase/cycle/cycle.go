// Package cycle runs one scheduled ingestion round end to end: ingest,
// announce, personalized fan-out, then refresh the search index.
package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/notify"
)

type Ingester interface {
	Ingest(ctx context.Context, limit int) ([]*entity.StoredArticle, error)
}

type Notifier interface {
	Broadcast(ctx context.Context, message string, count int) int
	NotifyNewArticles(ctx context.Context, articles []*entity.StoredArticle) notify.FanoutStats
}

type Indexer interface {
	Sync(ctx context.Context) error
}

// ArticleCounter feeds the articles_total gauge; optional.
type ArticleCounter interface {
	Count(ctx context.Context, filters repository.ArticleFilters) (int64, error)
}

// Result summarizes one Run.
type Result struct {
	New      int
	Notified notify.FanoutStats
	Synced   bool
	Duration time.Duration
}

type Runner struct {
	Ingest   Ingester
	Notify   Notifier
	Index    Indexer
	Articles ArticleCounter
	Limit    int
	Logger   *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run performs one cycle. Only an ingestion failure is returned; broadcast,
// fan-out and index problems are logged and the cycle still counts as done.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	log := r.logger()

	created, err := r.Ingest.Ingest(ctx, r.Limit)
	if err != nil {
		return Result{Duration: time.Since(start)}, fmt.Errorf("ingest: %w", err)
	}

	res := Result{New: len(created)}
	if len(created) > 0 {
		r.Notify.Broadcast(ctx, fmt.Sprintf("%d new articles available", len(created)), len(created))
		res.Notified = r.Notify.NotifyNewArticles(ctx, created)

		if r.Index != nil {
			if err := r.Index.Sync(ctx); err != nil {
				log.Warn("search index sync after ingestion failed", slog.Any("error", err))
			} else {
				res.Synced = true
			}
		}
	}
	r.updateArticleGauge(ctx)

	res.Duration = time.Since(start)
	log.Info("cycle completed",
		slog.Int("new", res.New),
		slog.Int("notified", res.Notified.Notified),
		slog.Bool("index_synced", res.Synced),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// SyncOnStartup fills the index before the first cycle, retrying per cfg
// (normally retry.IndexStartupConfig). A final failure is logged and
// returned; callers keep running without a fresh index.
func (r *Runner) SyncOnStartup(ctx context.Context, cfg retry.Config) error {
	if r.Index == nil {
		return nil
	}
	err := retry.WithBackoff(ctx, cfg, func() error { return r.Index.Sync(ctx) })
	if err != nil {
		r.logger().Error("initial search index sync failed, continuing without it", slog.Any("error", err))
		return err
	}
	r.logger().Info("initial search index sync completed")
	return nil
}

func (r *Runner) updateArticleGauge(ctx context.Context) {
	if r.Articles == nil {
		return
	}
	n, err := r.Articles.Count(ctx, repository.ArticleFilters{})
	if err != nil {
		r.logger().Debug("count articles for gauge", slog.Any("error", err))
		return
	}
	metrics.UpdateArticlesTotal(n)
}
