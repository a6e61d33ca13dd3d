// Package notify pushes new-article notifications to connected clients: an
// unconditional broadcast plus a personalized message per interested user.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

const (
	defaultMaxConcurrent = 10
	perUserTimeout       = 10 * time.Second
)

// Registry is the push side of the connection registry.
type Registry interface {
	Broadcast(ctx context.Context, payload []byte) int
	SendToUser(ctx context.Context, userID int64, payload []byte) int
	ConnectedUserIDs() []int64
}

// FanoutStats summarizes one NotifyNewArticles call.
type FanoutStats struct {
	Candidates int
	Notified   int
	Failed     int
}

type Service struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	registry Registry

	workerPool chan struct{}
}

// NewService builds the fan-out. maxConcurrent bounds how many users are
// processed at once.
func NewService(users repository.UserRepository, follows repository.FollowRepository, registry Registry, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Service{
		users:      users,
		follows:    follows,
		registry:   registry,
		workerPool: make(chan struct{}, maxConcurrent),
	}
}

// Broadcast sends a "new_articles" message to every live connection.
func (s *Service) Broadcast(ctx context.Context, message string, count int) int {
	payload, err := json.Marshal(BroadcastMessage{Type: "new_articles", Count: count, Message: message})
	if err != nil {
		slog.Error("marshal broadcast", slog.Any("error", err))
		return 0
	}
	n := s.registry.Broadcast(ctx, payload)
	recordSent(kindBroadcast, "success")
	slog.Info("broadcast notification sent",
		slog.String("message", message),
		slog.Int("connections", n))
	return n
}

// NotifyNewArticles sends each notifiable, connected user the subset of
// articles relevant to them. Failures for one user are logged and never
// affect another; nothing is returned as an error.
func (s *Service) NotifyNewArticles(ctx context.Context, articles []*entity.StoredArticle) FanoutStats {
	var stats FanoutStats
	if len(articles) == 0 {
		return stats
	}
	start := time.Now()

	online := s.registry.ConnectedUserIDs()
	if len(online) == 0 {
		return stats
	}
	slices.Sort(online)

	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		slog.Error("load notifiable users", slog.Any("error", err))
		return stats
	}
	users = slices.DeleteFunc(users, func(u *entity.User) bool {
		_, found := slices.BinarySearch(online, u.ID)
		return !found
	})
	if len(users) == 0 {
		return stats
	}
	stats.Candidates = len(users)

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	follows, err := s.follows.FollowsForUsers(ctx, ids)
	if err != nil {
		slog.Error("load follows for notification", slog.Int("users", len(ids)), slog.Any("error", err))
		return stats
	}

	var (
		wg       sync.WaitGroup
		notified atomic.Int64
		failed   atomic.Int64
	)
dispatch:
	for _, u := range users {
		select {
		case s.workerPool <- struct{}{}:
		case <-ctx.Done():
			slog.Warn("notification fan-out interrupted", slog.Any("error", ctx.Err()))
			break dispatch
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-s.workerPool }()
			sent, err := s.notifyUser(ctx, u, follows[u.ID], articles)
			switch {
			case err != nil:
				failed.Add(1)
				recordSent(kindPersonalized, "failure")
				slog.Warn("personalized notification failed",
					slog.Int64("user_id", u.ID),
					slog.Any("error", err))
			case sent:
				notified.Add(1)
				recordSent(kindPersonalized, "success")
			default:
				recordSent(kindPersonalized, "skipped")
			}
		}()
	}
	wg.Wait()

	stats.Notified = int(notified.Load())
	stats.Failed = int(failed.Load())
	recordFanout(time.Since(start), stats.Notified)
	slog.Info("personalized notifications dispatched",
		slog.Int("articles", len(articles)),
		slog.Int("candidates", stats.Candidates),
		slog.Int("notified", stats.Notified),
		slog.Int("failed", stats.Failed))
	return stats
}

// notifyUser reports whether a message was delivered. A panic is converted
// into an error so it stays contained to this user.
func (s *Service) notifyUser(ctx context.Context, u *entity.User, f entity.Follows, articles []*entity.StoredArticle) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in personalized notification",
				slog.Int64("user_id", u.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			sent, err = false, fmt.Errorf("panic: %v", r)
		}
	}()

	relevant := Relevant(u, f, articles)
	if len(relevant) == 0 {
		return false, nil
	}

	payload, err := json.Marshal(newPersonalizedMessage(u.ID, relevant))
	if err != nil {
		return false, fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, perUserTimeout)
	defer cancel()
	if s.registry.SendToUser(ctx, u.ID, payload) == 0 {
		return false, ErrNoDelivery
	}
	slog.Debug("personalized notification sent",
		slog.Int64("user_id", u.ID),
		slog.Int("relevant", len(relevant)))
	return true, nil
}
