package repository

import (
	"context"

	"news-aggregator/internal/domain/entity"
)

type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	// Returns entity.ErrConflict if username or email is taken.
	Create(ctx context.Context, user *entity.User) error
	// Get, GetByUsername and GetByEmail return (nil, nil) when nothing matches.
	Get(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePreferences(ctx context.Context, id int64, prefs entity.NotificationPreferences) error
	// Delete removes the user along with saved articles and follows.
	Delete(ctx context.Context, id int64) error
	// ListNotifiable returns active users with notifications enabled.
	ListNotifiable(ctx context.Context) ([]*entity.User, error)
}
