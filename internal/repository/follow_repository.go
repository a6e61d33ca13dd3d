package repository

import (
	"context"

	"news-aggregator/internal/domain/entity"
)

// FollowRepository stores followed topics and outlets.
// Follow calls are idempotent; Unfollow calls report whether a row was removed.
type FollowRepository interface {
	FollowTopic(ctx context.Context, userID int64, topic string) error
	UnfollowTopic(ctx context.Context, userID int64, topic string) (bool, error)
	ListTopics(ctx context.Context, userID int64) ([]string, error)
	FollowOutlet(ctx context.Context, userID int64, outlet string) error
	UnfollowOutlet(ctx context.Context, userID int64, outlet string) (bool, error)
	ListOutlets(ctx context.Context, userID int64) ([]string, error)
	// FollowsForUsers loads topics and outlets for many users at once.
	// Users that follow nothing are absent from the map.
	FollowsForUsers(ctx context.Context, userIDs []int64) (map[int64]entity.Follows, error)
}
