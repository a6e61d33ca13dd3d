// Package ws upgrades GET /v1/ws to the push channel.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/handler/http/auth"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/infra/realtime"
	"news-aggregator/internal/observability/logging"
	userUC "news-aggregator/internal/usecase/user"
)

// TokenResolver is satisfied by *auth.Authenticator.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}

// Registry is the subset of *realtime.Registry the handler needs.
type Registry interface {
	Connect(conn realtime.Conn, userID *int64)
	Disconnect(conn realtime.Conn)
}

// Handler accepts push connections. A ?token= query parameter binds the
// connection to that user; without one the connection is anonymous and only
// receives broadcasts. A token that is present but invalid is refused before
// the upgrade.
type Handler struct {
	Auth     TokenResolver
	Registry Registry
	Config   realtime.WSConfig
	// AllowedOrigins lists accepted Origin hosts. Empty keeps the same-origin
	// check; "*" accepts any origin.
	AllowedOrigins []string
	Logger         *slog.Logger
}

func (h Handler) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(h.AllowedOrigins) > 0 {
		u.CheckOrigin = h.checkOrigin
	}
	return u
}

func (h Handler) checkOrigin(r *http.Request) bool {
	if slices.Contains(h.AllowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return slices.Contains(h.AllowedOrigins, u.Host) || slices.Contains(h.AllowedOrigins, origin)
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithRequestID(r.Context(), logger)

	var userID *int64
	if token := r.URL.Query().Get("token"); token != "" {
		u, err := h.Auth.Resolve(r.Context(), token)
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.Error(w, http.StatusUnauthorized, err)
			return
		case errors.Is(err, userUC.ErrInactiveUser):
			respond.Error(w, http.StatusBadRequest, err)
			return
		case err != nil:
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}
		userID = &u.ID
	}

	ws, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := realtime.NewWSConn(ws, h.Config)
	h.Registry.Connect(conn, userID)
	attrs := []any{slog.String("conn_id", conn.ID())}
	if userID != nil {
		attrs = append(attrs, slog.Int64("user_id", *userID))
	}
	logger.Info("push client connected", attrs...)

	conn.ReadLoop()
	h.Registry.Disconnect(conn)
	logger.Info("push client disconnected", attrs...)
}
