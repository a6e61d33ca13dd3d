// Package provider turns external news sources into entity.NormalizedArticle
// values.
//
// Adapters never return errors. Each one splits its work into independent
// sub-fetches (one per NewsAPI category, source batch or RSS feed) that run
// concurrently. A sub-fetch that fails is logged as an AdapterError and
// contributes nothing, so one unreachable endpoint never empties the cycle.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/observability/metrics"
)

// defaultMaxConcurrent bounds in-flight sub-fetches per adapter.
const defaultMaxConcurrent = 8

// AdapterError describes one failed sub-fetch.
type AdapterError struct {
	Adapter string
	Target  string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Adapter, e.Target, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

type subFetch struct {
	target string
	run    func(ctx context.Context) ([]entity.NormalizedArticle, error)
}

// gather runs every sub-fetch and flattens the results in declaration order.
// Failures and panics are logged and yield an empty contribution.
func gather(ctx context.Context, adapter string, fetches []subFetch, maxConcurrent int) []entity.NormalizedArticle {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	results := make([][]entity.NormalizedArticle, len(fetches))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, f := range fetches {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logAdapterError(&AdapterError{
						Adapter: adapter,
						Target:  f.target,
						Err:     fmt.Errorf("panic: %v", r),
					})
					slog.Debug("sub-fetch panic stack", slog.String("stack", string(debug.Stack())))
				}
			}()

			items, fetchErr := f.run(ctx)
			if fetchErr != nil {
				logAdapterError(&AdapterError{Adapter: adapter, Target: f.target, Err: fetchErr})
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	flat := make([]entity.NormalizedArticle, 0, total)
	for _, r := range results {
		flat = append(flat, r...)
	}
	return entity.DedupeByURL(flat)
}

func logAdapterError(err *AdapterError) {
	metrics.RecordAdapterError(err.Adapter)
	slog.Warn("adapter sub-fetch failed",
		slog.String("adapter", err.Adapter),
		slog.String("target", err.Target),
		slog.Any("error", err.Err))
}
