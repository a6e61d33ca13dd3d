package entity

import "time"

// User is a registered account together with its notification switches.
type User struct {
	ID                   int64
	Username             string
	Email                string
	PasswordHash         string
	IsActive             bool
	NotificationsEnabled bool
	NotifyTopics         bool
	NotifyOutlets        bool
	CreatedAt            time.Time
}

// NotificationPreferences groups the three per-user notification flags.
type NotificationPreferences struct {
	NotificationsEnabled bool
	NotifyTopics         bool
	NotifyOutlets        bool
}

// Preferences returns the user's current notification flags.
func (u *User) Preferences() NotificationPreferences {
	return NotificationPreferences{
		NotificationsEnabled: u.NotificationsEnabled,
		NotifyTopics:         u.NotifyTopics,
		NotifyOutlets:        u.NotifyOutlets,
	}
}

// Follows holds what one user follows. Both slices may be empty.
type Follows struct {
	Topics  []string
	Outlets []string
}
