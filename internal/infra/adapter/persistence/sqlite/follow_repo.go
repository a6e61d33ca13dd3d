package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

type FollowRepo struct{ db *sql.DB }

func NewFollowRepo(db *sql.DB) repository.FollowRepository {
	return &FollowRepo{db: db}
}

func (repo *FollowRepo) FollowTopic(ctx context.Context, userID int64, topic string) error {
	const query = `INSERT OR IGNORE INTO user_topics (user_id, topic) VALUES (?, ?)`
	if _, err := repo.db.ExecContext(ctx, query, userID, topic); err != nil {
		return fmt.Errorf("FollowTopic: %w", err)
	}
	return nil
}

func (repo *FollowRepo) UnfollowTopic(ctx context.Context, userID int64, topic string) (bool, error) {
	return execRemoved(ctx, repo.db, "UnfollowTopic",
		`DELETE FROM user_topics WHERE user_id = ? AND topic = ?`, userID, topic)
}

func (repo *FollowRepo) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	return queryStrings(ctx, repo.db, "ListTopics",
		`SELECT topic FROM user_topics WHERE user_id = ? ORDER BY topic`, userID)
}

func (repo *FollowRepo) FollowOutlet(ctx context.Context, userID int64, outlet string) error {
	const query = `INSERT OR IGNORE INTO user_outlets (user_id, outlet) VALUES (?, ?)`
	if _, err := repo.db.ExecContext(ctx, query, userID, outlet); err != nil {
		return fmt.Errorf("FollowOutlet: %w", err)
	}
	return nil
}

func (repo *FollowRepo) UnfollowOutlet(ctx context.Context, userID int64, outlet string) (bool, error) {
	return execRemoved(ctx, repo.db, "UnfollowOutlet",
		`DELETE FROM user_outlets WHERE user_id = ? AND outlet = ?`, userID, outlet)
}

func (repo *FollowRepo) ListOutlets(ctx context.Context, userID int64) ([]string, error) {
	return queryStrings(ctx, repo.db, "ListOutlets",
		`SELECT outlet FROM user_outlets WHERE user_id = ? ORDER BY outlet`, userID)
}

func (repo *FollowRepo) FollowsForUsers(ctx context.Context, userIDs []int64) (map[int64]entity.Follows, error) {
	result := make(map[int64]entity.Follows, len(userIDs))
	for start := 0; start < len(userIDs); start += maxVars / 2 {
		chunk := userIDs[start:min(start+maxVars/2, len(userIDs))]
		if err := repo.loadFollows(ctx, chunk, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (repo *FollowRepo) loadFollows(ctx context.Context, ids []int64, into map[int64]entity.Follows) error {
	in := placeholders(len(ids))
	args := make([]interface{}, 0, 2*len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, args...)

	query := `
SELECT user_id, 'topic' AS kind, topic AS value FROM user_topics WHERE user_id IN (` + in + `)
UNION ALL
SELECT user_id, 'outlet' AS kind, outlet AS value FROM user_outlets WHERE user_id IN (` + in + `)
ORDER BY user_id, kind, value`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("FollowsForUsers: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id          int64
			kind, value string
		)
		if err := rows.Scan(&id, &kind, &value); err != nil {
			return fmt.Errorf("FollowsForUsers: Scan: %w", err)
		}
		f := into[id]
		if kind == "topic" {
			f.Topics = append(f.Topics, value)
		} else {
			f.Outlets = append(f.Outlets, value)
		}
		into[id] = f
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("FollowsForUsers: rows: %w", err)
	}
	return nil
}
