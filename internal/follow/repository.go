// AngelaMos | 2026
// repository.go

package follow

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, followerID, followedID int64) (bool, error)
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	ListFollowers(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error)
	ListFollowed(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowed(ctx context.Context, userID int64) (int, error)
	AddSelfFollows(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Insert adds the edge and reports whether it was new. The primary key
// settles concurrent attempts on the same pair.
func (r *repository) Insert(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followed_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return false, fmt.Errorf("follow: %w", core.ErrNotFound)
		}
		return false, fmt.Errorf("follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("follow: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, followerID, followedID); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}

	return exists, nil
}

func (r *repository) ListFollowers(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error) {
	total, err := r.CountFollowers(ctx, userID)
	if err != nil {
		return core.Page[Entry]{}, err
	}
	req = req.Resolve(total)

	query := `
		SELECT u.id AS user_id, u.username, u.avatar_hash, u.default_gravatar, f.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = $1 AND f.follower_id <> f.followed_id
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`

	var items []Entry
	if err := r.db.SelectContext(ctx, &items, query, userID, req.Limit(), req.Offset()); err != nil {
		return core.Page[Entry]{}, fmt.Errorf("list followers: %w", err)
	}

	return core.NewPage(items, req, total), nil
}

func (r *repository) ListFollowed(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error) {
	total, err := r.CountFollowed(ctx, userID)
	if err != nil {
		return core.Page[Entry]{}, err
	}
	req = req.Resolve(total)

	query := `
		SELECT u.id AS user_id, u.username, u.avatar_hash, u.default_gravatar, f.created_at
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = $1 AND f.follower_id <> f.followed_id
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`

	var items []Entry
	if err := r.db.SelectContext(ctx, &items, query, userID, req.Limit(), req.Offset()); err != nil {
		return core.Page[Entry]{}, fmt.Errorf("list followed: %w", err)
	}

	return core.NewPage(items, req, total), nil
}

func (r *repository) CountFollowers(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM follows WHERE followed_id = $1 AND follower_id <> followed_id`

	var n int
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return n, nil
}

func (r *repository) CountFollowed(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM follows WHERE follower_id = $1 AND follower_id <> followed_id`

	var n int
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("count followed: %w", err)
	}
	return n, nil
}

// AddSelfFollows gives every user lacking one a self-follow edge and
// returns how many were added.
func (r *repository) AddSelfFollows(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO follows (follower_id, followed_id)
		SELECT id, id FROM users
		ON CONFLICT (follower_id, followed_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("add self follows: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("add self follows: %w", err)
	}
	return rows, nil
}
