package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/infra/adapter/persistence/sqlite"
	"news-aggregator/internal/infra/db"
	"news-aggregator/internal/repository"
)

/* ──────────────────────────── helpers ──────────────────────────── */

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(conn, db.DriverSQLite))
	return conn
}

func tp(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func article(url, source, category string, pub *time.Time) *entity.StoredArticle {
	return &entity.StoredArticle{
		URL:         url,
		Title:       "Title " + url,
		Source:      source,
		Content:     "content",
		PublishedAt: pub,
		Category:    entity.StringPtr(category),
	}
}

func seedArticles(t *testing.T, repo repository.ArticleRepository) {
	t.Helper()
	require.NoError(t, repo.InsertAll(context.Background(), []*entity.StoredArticle{
		article("https://a", "ESPN", "Sports", tp(2025, 7, 1)),
		article("https://b", "BBC", "Politics", tp(2025, 7, 3)),
		article("https://c", "ESPN", "Sports", nil),
		article("https://d", "Reuters", "", tp(2025, 7, 2)),
	}))
}

func urlsOf(arts []*entity.StoredArticle) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.URL
	}
	return out
}

/* ──────────────────────────── 1. articles ──────────────────────────── */

func TestArticleRepo_InsertAllAndExisting(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)

	got, err := repo.ExistingURLs(context.Background(), []string{"https://a", "https://zzz", "https://d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a": true, "https://d": true}, got)
}

func TestArticleRepo_InsertAll_AtomicOnDuplicate(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)

	err := repo.InsertAll(context.Background(), []*entity.StoredArticle{
		article("https://new", "ESPN", "Sports", tp(2025, 7, 4)),
		article("https://a", "ESPN", "Sports", tp(2025, 7, 4)),
	})
	require.ErrorIs(t, err, entity.ErrConflict)

	got, err := repo.Get(context.Background(), "https://new")
	require.NoError(t, err)
	assert.Nil(t, got, "batch must roll back entirely")
}

func TestArticleRepo_AllArticles_NewestFirstNullsLast(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)

	all, err := repo.AllArticles(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"https://b", "https://d", "https://a", "https://c"}, urlsOf(all)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestArticleRepo_Get_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)

	got, err := repo.Get(context.Background(), "https://a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ESPN", got.Source)
	assert.Equal(t, "Sports", got.CategoryOrEmpty())
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(*tp(2025, 7, 1)))
	assert.Nil(t, got.ImageURL)

	undated, err := repo.Get(context.Background(), "https://c")
	require.NoError(t, err)
	assert.Nil(t, undated.PublishedAt)
}

func TestArticleRepo_ListAndCount(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		filters   repository.ArticleFilters
		offset    int
		limit     int
		wantURLs  []string
		wantCount int64
	}{
		{"all first page", repository.ArticleFilters{}, 0, 2, []string{"https://b", "https://d"}, 4},
		{"all second page", repository.ArticleFilters{}, 2, 2, []string{"https://a", "https://c"}, 4},
		{"category", repository.ArticleFilters{Category: "Sports"}, 0, 10, []string{"https://a", "https://c"}, 2},
		{"source", repository.ArticleFilters{Source: "BBC"}, 0, 10, []string{"https://b"}, 1},
		{"both no match", repository.ArticleFilters{Category: "Sports", Source: "BBC"}, 0, 10, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filters, tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURLs, urlsOf(got))

			n, err := repo.Count(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestArticleRepo_UpdateCategory(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.UpdateCategory(ctx, "https://d", "Business"))
	got, err := repo.Get(ctx, "https://d")
	require.NoError(t, err)
	assert.Equal(t, "Business", got.CategoryOrEmpty())

	assert.ErrorIs(t, repo.UpdateCategory(ctx, "https://missing", "Business"), entity.ErrNotFound)
}

func TestArticleRepo_CategoriesAndOutlets(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	seedArticles(t, repo)

	cats, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Politics", "Sports"}, cats)

	outs, err := repo.Outlets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BBC", "ESPN", "Reuters"}, outs)
}

func TestArticleRepo_ExistingURLs_ManyChunks(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))

	arts := make([]*entity.StoredArticle, 0, 1000)
	urls := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		u := fmt.Sprintf("https://example.com/%d", i)
		arts = append(arts, article(u, "X", "General", nil))
		urls = append(urls, u)
	}
	require.NoError(t, repo.InsertAll(context.Background(), arts))

	got, err := repo.ExistingURLs(context.Background(), urls)
	require.NoError(t, err)
	assert.Len(t, got, 1000)
}

/* ──────────────────────────── 2. users ──────────────────────────── */

func newUser(name string) *entity.User {
	return &entity.User{
		Username: name, Email: name + "@example.com", PasswordHash: "hash",
		IsActive: true, NotificationsEnabled: true, NotifyTopics: true, NotifyOutlets: true,
	}
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewUserRepo(openTestDB(t))
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)
	assert.True(t, byName.NotifyOutlets)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	none, err := repo.Get(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewUserRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice")))
	err := repo.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, entity.ErrConflict)
}

func TestUserRepo_PreferencesAndNotifiable(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewUserRepo(openTestDB(t))
	ctx := context.Background()

	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	require.NoError(t, repo.UpdatePreferences(ctx, bob.ID, entity.NotificationPreferences{}))
	assert.ErrorIs(t, repo.UpdatePreferences(ctx, 999, entity.NotificationPreferences{}), entity.ErrNotFound)

	users, err := repo.ListNotifiable(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestUserRepo_Delete_Cascades(t *testing.T) {
	t.Parallel()
	conn := openTestDB(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(conn)
	follows := sqlite.NewFollowRepo(conn)
	saved := sqlite.NewSavedArticleRepo(conn)
	seedArticles(t, sqlite.NewArticleRepo(conn))

	u := newUser("alice")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, follows.FollowTopic(ctx, u.ID, "Sports"))
	require.NoError(t, saved.Save(ctx, u.ID, "https://a"))

	require.NoError(t, users.Delete(ctx, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, u.ID), entity.ErrNotFound)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM user_topics`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM user_saved_articles`).Scan(&n))
	assert.Zero(t, n)
}

/* ──────────────────────────── 3. follows ──────────────────────────── */

func TestFollowRepo_FollowUnfollow(t *testing.T) {
	t.Parallel()
	conn := openTestDB(t)
	ctx := context.Background()
	u := newUser("alice")
	require.NoError(t, sqlite.NewUserRepo(conn).Create(ctx, u))
	repo := sqlite.NewFollowRepo(conn)

	require.NoError(t, repo.FollowTopic(ctx, u.ID, "Sports"))
	require.NoError(t, repo.FollowTopic(ctx, u.ID, "Sports"))
	require.NoError(t, repo.FollowTopic(ctx, u.ID, "Health"))
	require.NoError(t, repo.FollowOutlet(ctx, u.ID, "ESPN"))

	topics, err := repo.ListTopics(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Sports"}, topics)

	removed, err := repo.UnfollowTopic(ctx, u.ID, "Sports")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.UnfollowTopic(ctx, u.ID, "Sports")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.UnfollowOutlet(ctx, u.ID, "ESPN")
	require.NoError(t, err)
	assert.True(t, removed)
	outlets, err := repo.ListOutlets(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, outlets)
}

func TestFollowRepo_FollowsForUsers(t *testing.T) {
	t.Parallel()
	conn := openTestDB(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(conn)
	alice, bob, carol := newUser("alice"), newUser("bob"), newUser("carol")
	for _, u := range []*entity.User{alice, bob, carol} {
		require.NoError(t, users.Create(ctx, u))
	}
	repo := sqlite.NewFollowRepo(conn)
	require.NoError(t, repo.FollowTopic(ctx, alice.ID, "Sports"))
	require.NoError(t, repo.FollowOutlet(ctx, alice.ID, "ESPN"))
	require.NoError(t, repo.FollowOutlet(ctx, bob.ID, "BBC"))

	got, err := repo.FollowsForUsers(ctx, []int64{alice.ID, bob.ID, carol.ID})
	require.NoError(t, err)
	want := map[int64]entity.Follows{
		alice.ID: {Topics: []string{"Sports"}, Outlets: []string{"ESPN"}},
		bob.ID:   {Outlets: []string{"BBC"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

/* ──────────────────────────── 4. saved articles ──────────────────────────── */

func TestSavedArticleRepo(t *testing.T) {
	t.Parallel()
	conn := openTestDB(t)
	ctx := context.Background()
	seedArticles(t, sqlite.NewArticleRepo(conn))
	u := newUser("alice")
	require.NoError(t, sqlite.NewUserRepo(conn).Create(ctx, u))
	repo := sqlite.NewSavedArticleRepo(conn)

	require.NoError(t, repo.Save(ctx, u.ID, "https://a"))
	require.NoError(t, repo.Save(ctx, u.ID, "https://a"))
	require.NoError(t, repo.Save(ctx, u.ID, "https://b"))

	list, err := repo.List(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b", "https://a"}, urlsOf(list))

	marks, err := repo.SavedURLs(ctx, u.ID, []string{"https://a", "https://c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a": true}, marks)

	removed, err := repo.Remove(ctx, u.ID, "https://a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, u.ID, "https://a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestArticleRepo_InsertAll_KeepsCreatedAt(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewArticleRepo(openTestDB(t))
	ctx := context.Background()

	stamped := article("https://stamped", "BBC", "Politics", nil)
	stamped.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	unstamped := article("https://unstamped", "BBC", "Politics", nil)
	require.NoError(t, repo.InsertAll(ctx, []*entity.StoredArticle{stamped, unstamped}))

	got, err := repo.Get(ctx, "https://stamped")
	require.NoError(t, err)
	assert.True(t, stamped.CreatedAt.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)

	got, err = repo.Get(ctx, "https://unstamped")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())
}
