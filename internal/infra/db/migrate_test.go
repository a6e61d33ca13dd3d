package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_saved_articles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_topics").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_outlets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_published_at").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_category").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_source").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, MigrateUp(db, DriverPostgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_StopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db, DriverPostgres)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_SQLiteIsIdempotent(t *testing.T) {
	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	require.NoError(t, MigrateUp(db, DriverSQLite))
	require.NoError(t, MigrateUp(db, DriverSQLite))

	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('articles','users','user_saved_articles','user_topics','user_outlets')`,
	).Scan(&n))
	assert.Equal(t, 5, n)
}

func TestMigrateDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, table := range []string{"user_outlets", "user_topics", "user_saved_articles", "users", "articles"} {
		mock.ExpectExec("DROP TABLE IF EXISTS " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	assert.NoError(t, MigrateDown(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
