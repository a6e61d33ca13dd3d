package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/domain/entity"
	pg "news-aggregator/internal/infra/adapter/persistence/postgres"
)

/* ─────────────────────────── follows ─────────────────────────── */

func TestFollowRepo_FollowTopic_Idempotent(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	q := regexp.QuoteMeta("INSERT INTO user_topics (user_id, topic) VALUES ($1, $2) ON CONFLICT DO NOTHING")
	mock.ExpectExec(q).WithArgs(int64(1), "Sports").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(1), "Sports").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewFollowRepo(db)
	require.NoError(t, repo.FollowTopic(context.Background(), 1, "Sports"))
	require.NoError(t, repo.FollowTopic(context.Background(), 1, "Sports"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepo_UnfollowOutlet(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DELETE FROM user_outlets").
		WithArgs(int64(1), "ESPN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_outlets").
		WithArgs(int64(1), "ESPN").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewFollowRepo(db)
	removed, err := repo.UnfollowOutlet(context.Background(), 1, "ESPN")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.UnfollowOutlet(context.Background(), 1, "ESPN")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepo_ListTopics(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT topic FROM user_topics").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"topic"}).AddRow("Health").AddRow("Sports"))

	got, err := pg.NewFollowRepo(db).ListTopics(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Sports"}, got)
}

func TestFollowRepo_FollowsForUsers(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("UNION ALL").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "kind", "value"}).
			AddRow(int64(1), "outlet", "ESPN").
			AddRow(int64(1), "topic", "Sports").
			AddRow(int64(2), "topic", "Weather"))

	got, err := pg.NewFollowRepo(db).FollowsForUsers(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	want := map[int64]entity.Follows{
		1: {Topics: []string{"Sports"}, Outlets: []string{"ESPN"}},
		2: {Topics: []string{"Weather"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

/* ─────────────────────────── saved articles ─────────────────────────── */

func TestSavedArticleRepo_SaveAndSavedURLs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_saved_articles")).
		WithArgs(int64(1), "https://a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT article_url FROM user_saved_articles").
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"article_url"}).AddRow("https://a"))

	repo := pg.NewSavedArticleRepo(db)
	require.NoError(t, repo.Save(context.Background(), 1, "https://a"))

	got, err := repo.SavedURLs(context.Background(), 1, []string{"https://a", "https://b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://a": true}, got)
}

func TestSavedArticleRepo_List(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN articles a ON a.url = s.article_url WHERE s.user_id = $1 ORDER BY s.saved_at DESC")).
		WithArgs(int64(1)).
		WillReturnRows(artRows(sampleArticle("https://a")))

	got, err := pg.NewSavedArticleRepo(db).List(context.Background(), 1, 0, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].URL)
}
