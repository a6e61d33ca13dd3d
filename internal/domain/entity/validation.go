package entity

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxURLLength      = 2048
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
	maxLabelLength    = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateURL checks that rawURL is an absolute http(s) URL of sane length.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "url is invalid"}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "url must use http or https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "url must have a valid host"}
	}
	return nil
}

// ValidateUsername enforces length and a conservative character set.
func ValidateUsername(username string) error {
	n := len(username)
	if n == 0 {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if n < minUsernameLength || n > maxUsernameLength {
		return &ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength),
		}
	}
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Message: "username contains invalid characters"}
	}
	return nil
}

// ValidateEmail accepts a bare address (no display name).
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "email is invalid"}
	}
	return nil
}

// ValidatePassword checks the length bounds only.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		}
	}
	if len(password) > maxPasswordLength {
		return &ValidationError{Field: "password", Message: "password is too long"}
	}
	return nil
}

// ValidateLabel validates a topic or outlet name a user wants to follow.
func ValidateLabel(field, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if len(v) > maxLabelLength {
		return &ValidationError{Field: field, Message: field + " is too long"}
	}
	return nil
}
