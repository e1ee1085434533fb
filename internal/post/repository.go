// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	UpdateBody(ctx context.Context, id int64, body, bodyHTML string) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, req core.PageRequest) (core.Page[Post], error)
	ListByAuthor(ctx context.Context, authorID int64, req core.PageRequest) (core.Page[Post], error)
	ListTimeline(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Post], error)
	Count(ctx context.Context) (int, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectPost = `
	SELECT p.id, p.body, p.body_html, p.created_at, p.author_id,
	       u.username AS author_username, u.avatar_hash AS author_avatar_hash,
	       u.default_gravatar AS author_gravatar,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func (r *repository) Create(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (body, body_html, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := r.db.GetContext(ctx, p, query, p.Body, p.BodyHTML, p.AuthorID); err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create post: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := r.db.GetContext(ctx, &p, selectPost+` WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &p, nil
}

// UpdateBody rewrites the body only. created_at is never touched.
func (r *repository) UpdateBody(ctx context.Context, id int64, body, bodyHTML string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET body = $2, body_html = $3 WHERE id = $1`, id, body, bodyHTML)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update post: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

func (r *repository) List(ctx context.Context, req core.PageRequest) (core.Page[Post], error) {
	return r.page(ctx, "list posts",
		`SELECT COUNT(*) FROM posts p`,
		selectPost, nil, req)
}

func (r *repository) ListByAuthor(ctx context.Context, authorID int64, req core.PageRequest) (core.Page[Post], error) {
	return r.page(ctx, "list author posts",
		`SELECT COUNT(*) FROM posts p WHERE p.author_id = $1`,
		selectPost+` WHERE p.author_id = $1`,
		[]any{authorID}, req)
}

// ListTimeline pages the posts of everyone userID follows. The self-follow
// edge brings in the user's own posts.
func (r *repository) ListTimeline(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Post], error) {
	return r.page(ctx, "list timeline",
		`SELECT COUNT(*) FROM posts p
		 JOIN follows f ON f.followed_id = p.author_id
		 WHERE f.follower_id = $1`,
		selectPost+`
		 JOIN follows f ON f.followed_id = p.author_id
		 WHERE f.follower_id = $1`,
		[]any{userID}, req)
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (r *repository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID); err != nil {
		return 0, fmt.Errorf("count author posts: %w", err)
	}
	return n, nil
}

// page counts first so a last-page request resolves against the total seen
// by this call.
func (r *repository) page(
	ctx context.Context,
	op, countQuery, selectQuery string,
	args []any,
	req core.PageRequest,
) (core.Page[Post], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return core.Page[Post]{}, fmt.Errorf("%s: count: %w", op, err)
	}
	req = req.Resolve(total)

	n := len(args)
	query := fmt.Sprintf(`%s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, selectQuery, n+1, n+2)

	var items []Post
	if err := r.db.SelectContext(ctx, &items, query, append(args, req.Limit(), req.Offset())...); err != nil {
		return core.Page[Post]{}, fmt.Errorf("%s: %w", op, err)
	}

	return core.NewPage(items, req, total), nil
}
