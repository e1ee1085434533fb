// AngelaMos | 2026
// repository.go

package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id int64) (*Comment, error)
	ListForPost(ctx context.Context, postID int64, req core.PageRequest) (core.Page[Comment], error)
	ListAll(ctx context.Context, req core.PageRequest) (core.Page[Comment], error)
	SetDisabled(ctx context.Context, id int64, disabled bool) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectComment = `
	SELECT c.id, c.body, c.body_html, c.created_at, c.disabled, c.author_id, c.post_id,
	       u.username AS author_username, u.avatar_hash AS author_avatar_hash,
	       u.default_gravatar AS author_gravatar
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func (r *repository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (body, body_html, author_id, post_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, disabled`

	err := r.db.GetContext(ctx, c, query, c.Body, c.BodyHTML, c.AuthorID, c.PostID)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create comment: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := r.db.GetContext(ctx, &c, selectComment+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &c, nil
}

// ListForPost pages the enabled comments of a post, oldest first.
func (r *repository) ListForPost(
	ctx context.Context,
	postID int64,
	req core.PageRequest,
) (core.Page[Comment], error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM comments WHERE post_id = $1 AND NOT disabled`
	if err := r.db.GetContext(ctx, &total, countQuery, postID); err != nil {
		return core.Page[Comment]{}, fmt.Errorf("count post comments: %w", err)
	}
	req = req.Resolve(total)

	query := selectComment + `
		WHERE c.post_id = $1 AND NOT c.disabled
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2 OFFSET $3`

	var items []Comment
	if err := r.db.SelectContext(ctx, &items, query, postID, req.Limit(), req.Offset()); err != nil {
		return core.Page[Comment]{}, fmt.Errorf("list post comments: %w", err)
	}

	return core.NewPage(items, req, total), nil
}

// ListAll pages every comment, disabled included, newest first.
func (r *repository) ListAll(ctx context.Context, req core.PageRequest) (core.Page[Comment], error) {
	total, err := r.Count(ctx)
	if err != nil {
		return core.Page[Comment]{}, err
	}
	req = req.Resolve(total)

	query := selectComment + `
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $1 OFFSET $2`

	var items []Comment
	if err := r.db.SelectContext(ctx, &items, query, req.Limit(), req.Offset()); err != nil {
		return core.Page[Comment]{}, fmt.Errorf("list comments: %w", err)
	}

	return core.NewPage(items, req, total), nil
}

func (r *repository) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE comments SET disabled = $2 WHERE id = $1`, id, disabled)
	if err != nil {
		return fmt.Errorf("set comment disabled: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set comment disabled: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set comment disabled: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM comments`); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
