// AngelaMos | 2026
// service.go

package comment

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

// PostChecker reports whether a post exists.
type PostChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo  Repository
	posts PostChecker
}

func NewService(repo Repository, posts PostChecker) *Service {
	return &Service{repo: repo, posts: posts}
}

// Create attaches a new, enabled comment by the caller to postID.
func (s *Service) Create(ctx context.Context, p *role.Principal, postID int64, body string) (*Comment, error) {
	if !p.Can(role.Comment) {
		return nil, fmt.Errorf("create comment: %w", core.ErrForbidden)
	}

	if core.IsBlankMarkup(body) {
		return nil, fmt.Errorf("create comment: empty body: %w", core.ErrInvalidInput)
	}

	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("create comment: post %d: %w", postID, core.ErrNotFound)
	}

	html, err := core.RenderCommentHTML(body)
	if err != nil {
		return nil, fmt.Errorf("render comment: %w", err)
	}

	c := &Comment{
		Body:           body,
		BodyHTML:       html,
		AuthorID:       p.UserID,
		PostID:         postID,
		AuthorUsername: p.Username,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) ListForPost(ctx context.Context, postID int64, req core.PageRequest) (core.Page[Comment], error) {
	return s.repo.ListForPost(ctx, postID, req)
}

// Queue is the moderation listing: every comment, newest first.
func (s *Service) Queue(ctx context.Context, p *role.Principal, req core.PageRequest) (core.Page[Comment], error) {
	if !p.Can(role.Moderate) {
		return core.Page[Comment]{}, fmt.Errorf("moderation queue: %w", core.ErrForbidden)
	}
	return s.repo.ListAll(ctx, req)
}

func (s *Service) SetDisabled(ctx context.Context, p *role.Principal, id int64, disabled bool) error {
	if !p.Can(role.Moderate) {
		return fmt.Errorf("moderate comment: %w", core.ErrForbidden)
	}
	return s.repo.SetDisabled(ctx, id, disabled)
}

func (s *Service) Get(ctx context.Context, id int64) (*Comment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
