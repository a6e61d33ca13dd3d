package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"news-aggregator/internal/domain/entity"
	"news-aggregator/internal/repository"
)

type FollowRepo struct {
	db *sql.DB
}

func NewFollowRepo(db *sql.DB) repository.FollowRepository {
	return &FollowRepo{db: db}
}

func (repo *FollowRepo) FollowTopic(ctx context.Context, userID int64, topic string) error {
	const query = `INSERT INTO user_topics (user_id, topic) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, topic); err != nil {
		return fmt.Errorf("FollowTopic: %w", err)
	}
	return nil
}

func (repo *FollowRepo) UnfollowTopic(ctx context.Context, userID int64, topic string) (bool, error) {
	const query = `DELETE FROM user_topics WHERE user_id = $1 AND topic = $2`
	return execRemoved(ctx, repo.db, "UnfollowTopic", query, userID, topic)
}

func (repo *FollowRepo) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT topic FROM user_topics WHERE user_id = $1 ORDER BY topic`
	return queryStrings(ctx, repo.db, "ListTopics", query, userID)
}

func (repo *FollowRepo) FollowOutlet(ctx context.Context, userID int64, outlet string) error {
	const query = `INSERT INTO user_outlets (user_id, outlet) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, outlet); err != nil {
		return fmt.Errorf("FollowOutlet: %w", err)
	}
	return nil
}

func (repo *FollowRepo) UnfollowOutlet(ctx context.Context, userID int64, outlet string) (bool, error) {
	const query = `DELETE FROM user_outlets WHERE user_id = $1 AND outlet = $2`
	return execRemoved(ctx, repo.db, "UnfollowOutlet", query, userID, outlet)
}

func (repo *FollowRepo) ListOutlets(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT outlet FROM user_outlets WHERE user_id = $1 ORDER BY outlet`
	return queryStrings(ctx, repo.db, "ListOutlets", query, userID)
}

func (repo *FollowRepo) FollowsForUsers(ctx context.Context, userIDs []int64) (map[int64]entity.Follows, error) {
	result := make(map[int64]entity.Follows, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	const query = `
SELECT user_id, 'topic' AS kind, topic AS value FROM user_topics WHERE user_id = ANY($1)
UNION ALL
SELECT user_id, 'outlet' AS kind, outlet AS value FROM user_outlets WHERE user_id = ANY($1)
ORDER BY user_id, kind, value`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("FollowsForUsers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id          int64
			kind, value string
		)
		if err := rows.Scan(&id, &kind, &value); err != nil {
			return nil, fmt.Errorf("FollowsForUsers: Scan: %w", err)
		}
		f := result[id]
		if kind == "topic" {
			f.Topics = append(f.Topics, value)
		} else {
			f.Outlets = append(f.Outlets, value)
		}
		result[id] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FollowsForUsers: rows: %w", err)
	}
	return result, nil
}

func execRemoved(ctx context.Context, db *sql.DB, op, query string, args ...interface{}) (bool, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: RowsAffected: %w", op, err)
	}
	return n > 0, nil
}
