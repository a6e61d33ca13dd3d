package sqlite

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

type UserRepo struct{ db *sql.DB }

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
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	const query = `
INSERT INTO users (username, email, password_hash, is_active,
	notifications_enabled, notify_topics, notify_outlets)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.IsActive,
		user.NotificationsEnabled, user.NotifyTopics, user.NotifyOutlets,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w: %v", entity.ErrConflict, err)
		}
		return fmt.Errorf("Create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	user.ID = id

	if err := repo.db.QueryRowContext(ctx, `SELECT created_at FROM users WHERE id = ?`, id).
		Scan(&user.CreatedAt); err != nil {
		return fmt.Errorf("Create: created_at: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	return repo.getOne(ctx, "Get", "id", id)
}

func (repo *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.getOne(ctx, "GetByUsername", "username", username)
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.getOne(ctx, "GetByEmail", "email", email)
}

// getOne looks up a single user; column is always a constant from this file.
func (repo *UserRepo) getOne(ctx context.Context, op, column string, arg interface{}) (*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"
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
SET notifications_enabled = ?, notify_topics = ?, notify_outlets = ?
WHERE id = ?`
	updated, err := execRemoved(ctx, repo.db, "UpdatePreferences", query,
		prefs.NotificationsEnabled, prefs.NotifyTopics, prefs.NotifyOutlets, id)
	if err != nil {
		return err
	}
	if !updated {
		return entity.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE, which needs PRAGMA foreign_keys = ON.
func (repo *UserRepo) Delete(ctx context.Context, id int64) error {
	deleted, err := execRemoved(ctx, repo.db, "Delete", `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !deleted {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *UserRepo) ListNotifiable(ctx context.Context) ([]*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE is_active = 1 AND notifications_enabled = 1 ORDER BY id"
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListNotifiable: QueryContext: %w", err)
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
