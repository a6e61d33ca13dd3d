// Package respond writes JSON responses and maps errors to status codes
// without leaking internal causes to clients.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"message": msg})
}

// Error writes the error text as {"detail": ...}. Use only for messages that
// are known to be safe.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"detail": err.Error()})
}

var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"not followed",
	"not in saved list",
	"already registered",
	"already exists",
	"must be",
	"must not",
	"too long",
	"too short",
	"incorrect username or password",
	"inactive user",
}

// SafeError returns validation-style messages as is and replaces everything
// else (and every 5xx) with a generic message. The full error is logged.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	safe := false
	if code < 500 {
		for _, f := range safeFragments {
			if strings.Contains(lower, f) {
				safe = true
				break
			}
		}
	}
	if safe {
		JSON(w, code, map[string]string{"detail": msg})
		return
	}

	slog.Default().Error("request failed",
		slog.Int("code", code),
		slog.String("status", http.StatusText(code)),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"detail": genericMessage(code)})
}

func genericMessage(code int) string {
	if code >= 500 {
		return "internal server error"
	}
	return strings.ToLower(http.StatusText(code))
}

// AppError carries a message meant for the client next to the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}

// Fail writes an AppError with its own code and message, or falls back to
// SafeError with code for any other error.
func Fail(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Default().Warn("application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, map[string]string{"detail": appErr.UserMsg})
		return
	}
	SafeError(w, code, err)
}
