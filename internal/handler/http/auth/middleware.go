package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/logging"
	userUC "news-aggregator/internal/usecase/user"
)

type ctxKey string

const ctxUser ctxKey = "user"

// UserResolver looks up the active account named by a token subject.
type UserResolver interface {
	ActiveByUsername(ctx context.Context, username string) (*entity.User, error)
}

type Authenticator struct {
	Issuer *Issuer
	Users  UserResolver
}

// UserFromContext returns the authenticated user, or nil on anonymous requests.
func UserFromContext(ctx context.Context) *entity.User {
	u, _ := ctx.Value(ctxUser).(*entity.User)
	return u
}

func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// Resolve validates a raw token and loads its user.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*entity.User, error) {
	claims, err := a.Issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := a.Users.ActiveByUsername(ctx, claims.Subject)
	if errors.Is(err, userUC.ErrInvalidCredentials) {
		return nil, ErrInvalidToken
	}
	return u, err
}

// RequireUser rejects requests without a valid bearer token with 401, and
// tokens for disabled accounts with 400.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			recordRejection("missing_token")
			unauthorized(w)
			return
		}
		u, err := a.Resolve(r.Context(), token)
		switch {
		case errors.Is(err, ErrInvalidToken):
			recordRejection("invalid_token")
			unauthorized(w)
			return
		case errors.Is(err, userUC.ErrInactiveUser):
			recordRejection("inactive")
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		case err != nil:
			recordRejection("lookup_error")
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalUser attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := a.Resolve(r.Context(), token)
		if err != nil {
			logging.WithRequestID(r.Context(), slog.Default()).Debug("ignoring bearer token",
				slog.String("reason", err.Error()))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respond.Error(w, http.StatusUnauthorized, ErrInvalidToken)
}
