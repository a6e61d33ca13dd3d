package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

const userColumns = `id, username, email, password_hash, is_active,
notifications_enabled, notify_topics, notify_outlets, created_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func scanUser(s rowScanner) (*entity.User, error) {
	var u entity.User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.NotificationsEnabled, &u.NotifyTopics, &u.NotifyOutlets, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	const query = `
INSERT INTO users (username, email, password_hash, is_active,
	notifications_enabled, notify_topics, notify_outlets)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsActive,
		user.NotificationsEnabled, user.NotifyTopics, user.NotifyOutlets,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w: %v", entity.ErrConflict, err)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	return repo.getOne(ctx, "Get", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.getOne(ctx, "GetByUsername", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.getOne(ctx, "GetByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (repo *UserRepo) getOne(ctx context.Context, op, query string, arg interface{}) (*entity.User, error) {
	u, err := scanUser(repo.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (repo *UserRepo) UpdatePreferences(ctx context.Context, id int64, prefs entity.NotificationPreferences) error {
	const query = `
UPDATE users
SET notifications_enabled = $1, notify_topics = $2, notify_outlets = $3
WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query,
		prefs.NotificationsEnabled, prefs.NotifyTopics, prefs.NotifyOutlets, id)
	if err != nil {
		return fmt.Errorf("UpdatePreferences: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdatePreferences: RowsAffected: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for saved articles and follows.
func (repo *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *UserRepo) ListNotifiable(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
WHERE is_active = TRUE AND notifications_enabled = TRUE
ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListNotifiable: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListNotifiable: Scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotifiable: rows: %w", err)
	}
	return users, nil
}
