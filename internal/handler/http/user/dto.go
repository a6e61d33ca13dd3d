// Package user serves account registration and the authenticated /users/me
// endpoints: profile, notification preferences, saved articles and follows.
package user

import (
	"time"

	"news-aggregator/internal/domain/entity"
)

// DTO is the public view of an account. The password hash never leaves the
// service.
type DTO struct {
	ID                   int64     `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	IsActive             bool      `json:"is_active"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	NotifyTopics         bool      `json:"notify_topics"`
	NotifyOutlets        bool      `json:"notify_outlets"`
	CreatedAt            time.Time `json:"created_at"`
}

func NewDTO(u *entity.User) DTO {
	return DTO{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		IsActive:             u.IsActive,
		NotificationsEnabled: u.NotificationsEnabled,
		NotifyTopics:         u.NotifyTopics,
		NotifyOutlets:        u.NotifyOutlets,
		CreatedAt:            u.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// preferencesRequest uses pointers so omitted fields keep their current value.
type preferencesRequest struct {
	NotificationsEnabled *bool `json:"notifications_enabled"`
	NotifyTopics         *bool `json:"notify_topics"`
	NotifyOutlets        *bool `json:"notify_outlets"`
}

func (p preferencesRequest) apply(cur entity.NotificationPreferences) entity.NotificationPreferences {
	if p.NotificationsEnabled != nil {
		cur.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.NotifyTopics != nil {
		cur.NotifyTopics = *p.NotifyTopics
	}
	if p.NotifyOutlets != nil {
		cur.NotifyOutlets = *p.NotifyOutlets
	}
	return cur
}
