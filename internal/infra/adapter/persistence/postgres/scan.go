package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"news-aggregator/internal/domain/entity"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

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
		t := pub.Time
		a.PublishedAt = &t
	}
	if category.Valid {
		a.Category = &category.String
	}
	if image.Valid {
		a.ImageURL = &image.String
	}
	return &a, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// createdAt keeps the caller's stamp so returned rows match stored ones.
// A zero stamp means "now".
func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
