// Package user implements account registration, credential checks, and the
// per-user collections (saved articles, followed topics and outlets).
package user

import "errors"

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("inactive user")
	// ErrNotFollowed is returned when unfollowing something the user does not follow.
	ErrNotFollowed = errors.New("not followed")
	// ErrNotSaved is returned when removing an article the user never saved.
	ErrNotSaved = errors.New("article not in saved list")
)
