package ingest_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/infra/adapter/persistence/sqlite"
	"news-aggregator/internal/infra/db"
	"news-aggregator/internal/repository"
	"news-aggregator/internal/usecase/categorize"
	"news-aggregator/internal/usecase/ingest"
)

/* ──────────────────────────── stubs ──────────────────────────── */

type stubAdapter struct {
	name  string
	items []entity.NormalizedArticle
	panic bool
	calls int
	mu    sync.Mutex
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Fetch(_ context.Context, _ int) []entity.NormalizedArticle {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.panic {
		panic("provider exploded")
	}
	return a.items
}

// memRepo is an in-memory ArticleRepository with switchable failures.
type memRepo struct {
	repository.ArticleRepository

	mu          sync.Mutex
	rows        map[string]*entity.StoredArticle
	existingErr error
	insertErr   error
	inserts     int
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]*entity.StoredArticle{}} }

func (r *memRepo) ExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existingErr != nil {
		return nil, r.existingErr
	}
	out := map[string]bool{}
	for _, u := range urls {
		if _, ok := r.rows[u]; ok {
			out[u] = true
		}
	}
	return out, nil
}

func (r *memRepo) InsertAll(_ context.Context, arts []*entity.StoredArticle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, a := range arts {
		r.rows[a.URL] = a
	}
	return nil
}

type stubFetcher struct {
	mu    sync.Mutex
	calls []string
	text  string
	err   error
}

func (f *stubFetcher) FetchContent(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	return f.text, f.err
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func urls(arts []*entity.StoredArticle) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.URL
	}
	return out
}

/* ──────────────────────────── end-to-end ──────────────────────────── */

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn, db.DriverSQLite))
	return conn
}

func TestIngest_EndToEnd_TwoAdapters(t *testing.T) {
	repo := sqlite.NewArticleRepo(openSQLite(t))
	a := &stubAdapter{name: "a", items: []entity.NormalizedArticle{
		{URL: "a", Title: "NBA Finals", Source: "S1", PublishedRaw: "2023-01-01T12:00:00Z"},
	}}
	b := &stubAdapter{name: "b", items: []entity.NormalizedArticle{
		{URL: "b", Title: "Storm warning", Source: "S2", PublishedRaw: "2023-01-01T13:00:00Z"},
	}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{a, b})

	created, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, urls(created))

	listed, err := repo.List(context.Background(), repository.ArticleFilters{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "b", listed[0].URL)
	assert.Equal(t, "Weather", listed[0].CategoryOrEmpty())
	assert.Equal(t, "a", listed[1].URL)
	assert.Equal(t, "Sports", listed[1].CategoryOrEmpty())
	assert.True(t, listed[0].PublishedAt.Equal(*at("2023-01-01T13:00:00Z")))

	again, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

/* ──────────────────────────── pipeline behaviour ──────────────────────────── */

func TestIngest_NoAdapters(t *testing.T) {
	svc := ingest.NewService(newMemRepo(), categorize.Default(), nil)
	_, err := svc.Ingest(context.Background(), 10)
	assert.ErrorIs(t, err, ingest.ErrNoAdapters)
}

func TestIngest_DedupesAcrossAdaptersFirstWins(t *testing.T) {
	repo := newMemRepo()
	first := &stubAdapter{name: "newsapi", items: []entity.NormalizedArticle{
		{URL: "x", Title: "From NewsAPI", Category: "Business"},
	}}
	second := &stubAdapter{name: "rss", items: []entity.NormalizedArticle{
		{URL: "x", Title: "From RSS"},
		{URL: "y", Title: "Only RSS"},
	}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{first, second})

	created, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, urls(created))
	assert.Equal(t, "From NewsAPI", repo.rows["x"].Title)
	assert.Equal(t, "Business", repo.rows["x"].CategoryOrEmpty())
}

func TestIngest_PartialFailure(t *testing.T) {
	repo := newMemRepo()
	broken := &stubAdapter{name: "broken", panic: true}
	empty := &stubAdapter{name: "empty"}
	ok := &stubAdapter{name: "ok", items: []entity.NormalizedArticle{
		{URL: "b1", Title: "Election results"},
	}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{broken, empty, ok})

	created, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "b1", created[0].URL)
	assert.Equal(t, 1, broken.calls)
}

func TestIngest_OrderingUndatedLast(t *testing.T) {
	repo := newMemRepo()
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{
		{URL: "undated-1", Title: "u1"},
		{URL: "old", Title: "old", PublishedAt: at("2023-01-01T00:00:00Z")},
		{URL: "bad-date", Title: "bad", PublishedRaw: "yesterday"},
		{URL: "new", Title: "new", PublishedRaw: "2023-01-02T00:00:00+02:00"},
		{URL: "undated-2", Title: "u2"},
	}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src})

	created, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old", "undated-1", "bad-date", "undated-2"}, urls(created))
	assert.Nil(t, repo.rows["bad-date"].PublishedAt)
	assert.Equal(t, time.UTC, repo.rows["new"].PublishedAt.Location())
}

func TestIngest_LimitBoundsResultNotStorage(t *testing.T) {
	repo := newMemRepo()
	var items []entity.NormalizedArticle
	for i := 0; i < 5; i++ {
		items = append(items, entity.NormalizedArticle{
			URL:         fmt.Sprintf("u%d", i),
			Title:       "t",
			PublishedAt: at(fmt.Sprintf("2023-01-0%dT00:00:00Z", i+1)),
		})
	}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{&stubAdapter{name: "s", items: items}})

	created, err := svc.Ingest(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u4", "u3"}, urls(created))
	assert.Len(t, repo.rows, 5)
}

func TestIngest_ProviderCategoryWins(t *testing.T) {
	repo := newMemRepo()
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{
		{URL: "p", Title: "Apple launches new AI chip", Category: "Health"},
		{URL: "q", Title: "Apple launches new AI chip", Category: "   "},
		{URL: "r", Title: "A day in the life"},
	}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src})

	_, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Health", repo.rows["p"].CategoryOrEmpty())
	assert.Equal(t, "Technology", repo.rows["q"].CategoryOrEmpty())
	assert.Equal(t, entity.DefaultCategory, repo.rows["r"].CategoryOrEmpty())
}

func TestIngest_StorageErrors(t *testing.T) {
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{{URL: "a", Title: "t"}}}

	t.Run("existing lookup", func(t *testing.T) {
		repo := newMemRepo()
		repo.existingErr = errors.New("connection reset")
		_, err := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src}).Ingest(context.Background(), 10)
		assert.ErrorIs(t, err, ingest.ErrStorage)
		assert.Zero(t, repo.inserts)
	})

	t.Run("insert", func(t *testing.T) {
		repo := newMemRepo()
		repo.insertErr = entity.ErrConflict
		created, err := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src}).Ingest(context.Background(), 10)
		assert.ErrorIs(t, err, ingest.ErrStorage)
		assert.ErrorIs(t, err, entity.ErrConflict)
		assert.Nil(t, created)
		assert.Empty(t, repo.rows)
	})
}

func TestIngest_NothingNewSkipsInsert(t *testing.T) {
	repo := newMemRepo()
	repo.rows["a"] = &entity.StoredArticle{URL: "a"}
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{{URL: "a", Title: "t"}}}

	created, err := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src}).Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Zero(t, repo.inserts)
}

func TestIngest_ConcurrentCyclesDoNotDuplicate(t *testing.T) {
	repo := newMemRepo()
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{{URL: "a", Title: "t"}, {URL: "b", Title: "t"}}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src})

	var wg sync.WaitGroup
	total := make([]int, 4)
	for i := range total {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := svc.Ingest(context.Background(), 10)
			assert.NoError(t, err)
			total[i] = len(created)
		}()
	}
	wg.Wait()

	sum := 0
	for _, n := range total {
		sum += n
	}
	assert.Equal(t, 2, sum)
	assert.Equal(t, 1, repo.inserts)
}

/* ──────────────────────────── enrichment ──────────────────────────── */

func TestIngest_ContentEnrichment(t *testing.T) {
	repo := newMemRepo()
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{
		{URL: "short", Title: "t", Summary: "tiny"},
		{URL: "long", Title: "t", Summary: "this summary is long enough already"},
	}}
	fetcher := &stubFetcher{text: "the full readable body of the article page"}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src},
		ingest.WithContentFetcher(fetcher, ingest.ContentConfig{Threshold: 20, Parallelism: 2}))

	_, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, fetcher.calls)
	assert.Equal(t, "the full readable body of the article page", repo.rows["short"].Content)
	assert.Equal(t, "this summary is long enough already", repo.rows["long"].Content)
}

func TestIngest_ContentEnrichmentFailureKeepsSummary(t *testing.T) {
	repo := newMemRepo()
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{{URL: "short", Title: "t", Summary: "tiny"}}}
	fetcher := &stubFetcher{err: errors.New("403")}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src},
		ingest.WithContentFetcher(fetcher, ingest.ContentConfig{Threshold: 100}))

	created, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "tiny", repo.rows["short"].Content)
}

/* ──────────────────────────── helpers ──────────────────────────── */

func TestParsePublished(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2023-01-01T12:00:00Z", at("2023-01-01T12:00:00Z")},
		{"2023-01-01T14:00:00+02:00", at("2023-01-01T12:00:00Z")},
		{" 2023-01-01T12:00:00Z ", at("2023-01-01T12:00:00Z")},
		{"2023-01-01T12:00:00.5Z", at("2023-01-01T12:00:00Z")},
		{"", nil},
		{"2023-01-01", nil},
		{"Mon, 02 Jan 2006 15:04:05 MST", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ingest.ParsePublished(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Truncate(time.Second).Equal(*tt.want))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestWithClock(t *testing.T) {
	repo := newMemRepo()
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	src := &stubAdapter{name: "s", items: []entity.NormalizedArticle{{URL: "a", Title: "t"}}}
	svc := ingest.NewService(repo, categorize.Default(), []ingest.Adapter{src},
		ingest.WithClock(func() time.Time { return fixed }))

	_, err := svc.Ingest(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, fixed, repo.rows["a"].CreatedAt)
}
