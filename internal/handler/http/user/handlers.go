package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"news-aggregator/internal/common/pagination"
	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/handler/http/auth"
	"news-aggregator/internal/handler/http/feed"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/logging"
	userUC "news-aggregator/internal/usecase/user"
)

// Service is the subset of *user.Service the handlers need.
type Service interface {
	Register(ctx context.Context, in userUC.RegisterInput) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePreferences(ctx context.Context, id int64, prefs entity.NotificationPreferences) (*entity.User, error)

	SaveArticle(ctx context.Context, userID int64, url string) error
	RemoveSavedArticle(ctx context.Context, userID int64, url string) error
	SavedArticles(ctx context.Context, userID int64, offset, limit int) ([]*entity.StoredArticle, error)

	FollowTopic(ctx context.Context, userID int64, topic string) error
	UnfollowTopic(ctx context.Context, userID int64, topic string) error
	FollowedTopics(ctx context.Context, userID int64) ([]string, error)
	FollowOutlet(ctx context.Context, userID int64, outlet string) error
	UnfollowOutlet(ctx context.Context, userID int64, outlet string) error
	FollowedOutlets(ctx context.Context, userID int64) ([]string, error)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, userUC.ErrUsernameTaken), errors.Is(err, userUC.ErrEmailTaken):
		respond.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, entity.ErrValidationFailed):
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.Error(w, http.StatusBadRequest, errors.New(ve.Message))
			return
		}
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, entity.ErrNotFound):
		respond.Error(w, http.StatusNotFound, errors.New("article not found"))
	case errors.Is(err, userUC.ErrNotSaved), errors.Is(err, userUC.ErrNotFollowed):
		respond.Error(w, http.StatusNotFound, err)
	default:
		logging.FromContext(r.Context()).Error("user request failed", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}

/* ─── account ─── */

// RegisterHandler serves POST /v1/users/register.
type RegisterHandler struct{ Svc Service }

func (h RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	u, err := h.Svc.Register(r.Context(), userUC.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("user registered",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username))
	respond.JSON(w, http.StatusOK, NewDTO(u))
}

// MeHandler serves GET and DELETE /v1/users/me.
type MeHandler struct{ Svc Service }

func (h MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		respond.JSON(w, http.StatusOK, NewDTO(u))
	case http.MethodDelete:
		if err := h.Svc.Delete(r.Context(), u.ID); err != nil {
			writeError(w, r, err)
			return
		}
		logging.FromContext(r.Context()).Info("user deleted", slog.Int64("user_id", u.ID))
		respond.Message(w, http.StatusOK, "user deleted")
	default:
		w.Header().Set("Allow", "GET, DELETE")
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// PreferencesHandler serves PUT /v1/users/me/notifications.
type PreferencesHandler struct{ Svc Service }

func (h PreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	updated, err := h.Svc.UpdatePreferences(r.Context(), u.ID, req.apply(u.Preferences()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, NewDTO(updated))
}

/* ─── saved articles ─── */

// SavedHandler serves POST, DELETE and GET /v1/users/me/saved.
type SavedHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
}

func (h SavedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	ctx := r.Context()

	if r.Method == http.MethodGet {
		offset, limit, err := pagination.ParseSkipLimit(r, h.PaginationCfg)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		articles, err := h.Svc.SavedArticles(ctx, u.ID, offset, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		dtos := make([]feed.ArticleDTO, len(articles))
		for i, a := range articles {
			dtos[i] = feed.NewArticleDTO(a)
		}
		respond.JSON(w, http.StatusOK, dtos)
		return
	}

	url := r.URL.Query().Get("article_url")
	if url == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("article_url is required"))
		return
	}
	switch r.Method {
	case http.MethodPost:
		if err := h.Svc.SaveArticle(ctx, u.ID, url); err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"message": "article saved", "article_url": url})
	case http.MethodDelete:
		if err := h.Svc.RemoveSavedArticle(ctx, u.ID, url); err != nil {
			writeError(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"message": "article removed from saved", "article_url": url})
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

/* ─── follows ─── */

// followKind binds one followable dimension (topic or outlet) to its service
// calls so both share a handler.
type followKind struct {
	param    string
	follow   func(ctx context.Context, userID int64, v string) error
	unfollow func(ctx context.Context, userID int64, v string) error
	list     func(ctx context.Context, userID int64) ([]string, error)
	listKey  string
}

func topicKind(svc Service) followKind {
	return followKind{param: "topic", follow: svc.FollowTopic, unfollow: svc.UnfollowTopic, list: svc.FollowedTopics, listKey: "topics"}
}

func outletKind(svc Service) followKind {
	return followKind{param: "outlet", follow: svc.FollowOutlet, unfollow: svc.UnfollowOutlet, list: svc.FollowedOutlets, listKey: "outlets"}
}

// FollowHandler serves POST and DELETE /v1/users/me/follow/{topic|outlet}.
type FollowHandler struct{ kind followKind }

func (h FollowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	value := r.URL.Query().Get(h.kind.param)
	if value == "" {
		respond.Error(w, http.StatusBadRequest, errors.New(h.kind.param+" is required"))
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := h.kind.follow(r.Context(), u.ID, value); err != nil {
			writeError(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "now following "+h.kind.param+": "+value)
	case http.MethodDelete:
		err := h.kind.unfollow(r.Context(), u.ID, value)
		if errors.Is(err, userUC.ErrNotFollowed) {
			respond.Error(w, http.StatusNotFound, errors.New(h.kind.param+" not followed"))
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "unfollowed "+h.kind.param+": "+value)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		respond.Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// FollowedHandler serves GET /v1/users/me/followed/{topics|outlets}.
type FollowedHandler struct{ kind followKind }

func (h FollowedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	values, err := h.kind.list(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string][]string{h.kind.listKey: values})
}
