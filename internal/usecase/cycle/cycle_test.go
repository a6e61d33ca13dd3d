package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/resilience/retry"
	"news-aggregator/internal/usecase/notify"
)

/* ─── stubs ─── */

type stubIngester struct {
	out      []*entity.StoredArticle
	err      error
	gotLimit int
}

func (s *stubIngester) Ingest(_ context.Context, limit int) ([]*entity.StoredArticle, error) {
	s.gotLimit = limit
	return s.out, s.err
}

type stubNotifier struct {
	calls     []string
	message   string
	count     int
	fanoutFor int
}

func (s *stubNotifier) Broadcast(_ context.Context, msg string, count int) int {
	s.calls = append(s.calls, "broadcast")
	s.message, s.count = msg, count
	return 1
}

func (s *stubNotifier) NotifyNewArticles(_ context.Context, a []*entity.StoredArticle) notify.FanoutStats {
	s.calls = append(s.calls, "fanout")
	s.fanoutFor = len(a)
	return notify.FanoutStats{Candidates: 2, Notified: 1}
}

type stubIndex struct {
	failures int
	calls    int
}

func (s *stubIndex) Sync(context.Context) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("index unavailable")
	}
	return nil
}

type stubCounter struct{ n int64 }

func (s stubCounter) Count(context.Context, repository.ArticleFilters) (int64, error) { return s.n, nil }

func articles(n int) []*entity.StoredArticle {
	out := make([]*entity.StoredArticle, n)
	for i := range out {
		out[i] = &entity.StoredArticle{URL: "https://example.com/" + string(rune('a'+i))}
	}
	return out
}

/* ─── Run ─── */

func TestRun_NewArticles(t *testing.T) {
	ing := &stubIngester{out: articles(3)}
	nt := &stubNotifier{}
	idx := &stubIndex{}
	r := &Runner{Ingest: ing, Notify: nt, Index: idx, Articles: stubCounter{n: 42}, Limit: 20}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, ing.gotLimit)
	assert.Equal(t, []string{"broadcast", "fanout"}, nt.calls)
	assert.Equal(t, "3 new articles available", nt.message)
	assert.Equal(t, 3, nt.count)
	assert.Equal(t, 3, nt.fanoutFor)
	assert.Equal(t, 1, idx.calls)
	assert.Equal(t, 3, res.New)
	assert.Equal(t, 1, res.Notified.Notified)
	assert.True(t, res.Synced)
}

func TestRun_NothingNew(t *testing.T) {
	nt := &stubNotifier{}
	idx := &stubIndex{}
	r := &Runner{Ingest: &stubIngester{}, Notify: nt, Index: idx}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.New)
	assert.Empty(t, nt.calls)
	assert.Zero(t, idx.calls)
}

func TestRun_IngestFailureStopsCycle(t *testing.T) {
	nt := &stubNotifier{}
	r := &Runner{Ingest: &stubIngester{err: errors.New("storage down")}, Notify: nt, Index: &stubIndex{}}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage down")
	assert.Empty(t, nt.calls)
}

func TestRun_IndexFailureIsNotFatal(t *testing.T) {
	r := &Runner{Ingest: &stubIngester{out: articles(1)}, Notify: &stubNotifier{}, Index: &stubIndex{failures: 1}}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Synced)
}

/* ─── SyncOnStartup ─── */

func fastStartup() retry.Config {
	cfg := retry.IndexStartupConfig()
	cfg.InitialDelay, cfg.MaxDelay = time.Millisecond, time.Millisecond
	return cfg
}

func TestSyncOnStartup_RetriesUntilSuccess(t *testing.T) {
	idx := &stubIndex{failures: 2}
	r := &Runner{Index: idx}
	require.NoError(t, r.SyncOnStartup(context.Background(), fastStartup()))
	assert.Equal(t, 3, idx.calls)
}

func TestSyncOnStartup_GivesUpAfterThreeAttempts(t *testing.T) {
	idx := &stubIndex{failures: 10}
	r := &Runner{Index: idx}
	assert.Error(t, r.SyncOnStartup(context.Background(), fastStartup()))
	assert.Equal(t, 3, idx.calls)
}
