package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/metrics"
	"news-aggregator/internal/utils/text"
)

// enrich replaces short summaries with the article's page text. It never
// fails: any fetch problem leaves the summary in place.
func (s *Service) enrich(ctx context.Context, rows []*entity.StoredArticle) {
	if s.contentFetcher == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.contentCfg.Parallelism)
	for _, row := range rows {
		if text.CountRunes(row.Content) >= s.contentCfg.Threshold {
			metrics.RecordContentFetchSkipped()
			continue
		}
		g.Go(func() error {
			start := time.Now()
			body, err := s.contentFetcher.FetchContent(gctx, row.URL)
			if err != nil {
				metrics.RecordContentFetchFailed(time.Since(start))
				slog.Debug("content fetch failed, keeping summary",
					slog.String("url", row.URL),
					slog.Any("error", err))
				return nil
			}
			metrics.RecordContentFetchSuccess(time.Since(start))
			if text.CountRunes(body) > text.CountRunes(row.Content) {
				row.Content = body
			}
			return nil
		})
	}
	_ = g.Wait()
}
