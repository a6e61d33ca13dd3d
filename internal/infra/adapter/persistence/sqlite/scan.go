package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"news-aggregator/internal/domain/entity"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (*entity.StoredArticle, error) {
	var (
		a        entity.StoredArticle
		content  sql.NullString
		pub      sql.NullTime
		category sql.NullString
		image    sql.NullString
	)
	if err := s.Scan(&a.URL, &a.Title, &a.Source, &content, &pub, &category, &image, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Content = content.String
	if pub.Valid {
		t := pub.Time.UTC()
		a.PublishedAt = &t
	}
	if category.Valid {
		a.Category = &category.String
	}
	if image.Valid {
		a.ImageURL = &image.String
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// nullableTime stores times in UTC so text ordering matches time ordering.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// createdAt keeps the caller's stamp, in UTC like every stored time.
// A zero stamp means "now".
func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
