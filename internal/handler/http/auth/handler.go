package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/handler/http/respond"
	"news-aggregator/internal/observability/logging"
	userUC "news-aggregator/internal/usecase/user"
)

// CredentialChecker is satisfied by *user.Service.
type CredentialChecker interface {
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenHandler serves POST /v1/token. It accepts an OAuth2 password form or
// a JSON body with the same fields.
type TokenHandler struct {
	Users  CredentialChecker
	Issuer *Issuer
	Logger *slog.Logger
}

func (h TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithRequestID(r.Context(), logger)

	req, err := decodeTokenRequest(r)
	if err != nil || req.Username == "" || req.Password == "" {
		recordAuthRequest("failure", time.Since(start).Seconds())
		respond.Error(w, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, userUC.ErrInvalidCredentials) {
		logger.Warn("authentication failed", slog.String("reason", "invalid_credentials"))
		recordAuthRequest("failure", time.Since(start).Seconds())
		w.Header().Set("WWW-Authenticate", "Bearer")
		respond.Error(w, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		recordAuthRequest("error", time.Since(start).Seconds())
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	signed, err := h.Issuer.Issue(u)
	if err != nil {
		recordAuthRequest("error", time.Since(start).Seconds())
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("authentication successful",
		slog.Int64("user_id", u.ID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	recordAuthRequest("success", time.Since(start).Seconds())
	respond.JSON(w, http.StatusOK, TokenResponse{AccessToken: signed, TokenType: "bearer"})
}

func decodeTokenRequest(r *http.Request) (tokenRequest, error) {
	var req tokenRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}
