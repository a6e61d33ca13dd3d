package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

// DefaultBcryptCost is used when Service.Cost is zero.
const DefaultBcryptCost = 12

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type Service struct {
	Users    repository.UserRepository
	Follows  repository.FollowRepository
	Saved    repository.SavedArticleRepository
	Articles repository.ArticleRepository
	// Cost overrides the bcrypt cost; tests lower it to bcrypt.MinCost.
	Cost int
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return DefaultBcryptCost
	}
	return s.Cost
}

// Register creates an active account with every notification flag on.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := entity.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := entity.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := entity.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.Users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	existing, err = s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Username:             in.Username,
		Email:                in.Email,
		PasswordHash:         string(hash),
		IsActive:             true,
		NotificationsEnabled: true,
		NotifyTopics:         true,
		NotifyOutlets:        true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, entity.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return u, nil
}

// ActiveByUsername resolves the subject of an access token. It returns
// ErrInvalidCredentials for unknown users and ErrInactiveUser for disabled ones.
func (s *Service) ActiveByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

// Delete removes the account. Saved articles and follows go with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Service) UpdatePreferences(ctx context.Context, id int64, prefs entity.NotificationPreferences) (*entity.User, error) {
	if err := s.Users.UpdatePreferences(ctx, id, prefs); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return s.Get(ctx, id)
}

/* saved articles */

// SaveArticle is idempotent. The article must already be stored.
func (s *Service) SaveArticle(ctx context.Context, userID int64, url string) error {
	if err := entity.ValidateURL(url); err != nil {
		return err
	}
	a, err := s.Articles.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}
	if a == nil {
		return entity.ErrNotFound
	}
	if err := s.Saved.Save(ctx, userID, url); err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

func (s *Service) RemoveSavedArticle(ctx context.Context, userID int64, url string) error {
	removed, err := s.Saved.Remove(ctx, userID, url)
	if err != nil {
		return fmt.Errorf("remove saved article: %w", err)
	}
	if !removed {
		return ErrNotSaved
	}
	return nil
}

func (s *Service) SavedArticles(ctx context.Context, userID int64, offset, limit int) ([]*entity.StoredArticle, error) {
	articles, err := s.Saved.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list saved articles: %w", err)
	}
	return articles, nil
}

/* follows */

func (s *Service) FollowTopic(ctx context.Context, userID int64, topic string) error {
	topic = strings.TrimSpace(topic)
	if err := entity.ValidateLabel("topic", topic); err != nil {
		return err
	}
	return s.Follows.FollowTopic(ctx, userID, topic)
}

func (s *Service) UnfollowTopic(ctx context.Context, userID int64, topic string) error {
	removed, err := s.Follows.UnfollowTopic(ctx, userID, strings.TrimSpace(topic))
	if err != nil {
		return fmt.Errorf("unfollow topic: %w", err)
	}
	if !removed {
		return ErrNotFollowed
	}
	return nil
}

func (s *Service) FollowedTopics(ctx context.Context, userID int64) ([]string, error) {
	return s.Follows.ListTopics(ctx, userID)
}

func (s *Service) FollowOutlet(ctx context.Context, userID int64, outlet string) error {
	outlet = strings.TrimSpace(outlet)
	if err := entity.ValidateLabel("outlet", outlet); err != nil {
		return err
	}
	return s.Follows.FollowOutlet(ctx, userID, outlet)
}

func (s *Service) UnfollowOutlet(ctx context.Context, userID int64, outlet string) error {
	removed, err := s.Follows.UnfollowOutlet(ctx, userID, strings.TrimSpace(outlet))
	if err != nil {
		return fmt.Errorf("unfollow outlet: %w", err)
	}
	if !removed {
		return ErrNotFollowed
	}
	return nil
}

func (s *Service) FollowedOutlets(ctx context.Context, userID int64) ([]string, error) {
	return s.Follows.ListOutlets(ctx, userID)
}
