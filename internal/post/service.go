// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create publishes body as a new post by the caller.
func (s *Service) Create(ctx context.Context, p *role.Principal, body string) (*Post, error) {
	if !p.Can(role.Write) {
		return nil, fmt.Errorf("create post: %w", core.ErrForbidden)
	}

	html, err := renderBody(body)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	post := &Post{
		Body:           body,
		BodyHTML:       html,
		AuthorID:       p.UserID,
		AuthorUsername: p.Username,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Edit replaces the body of post id. Only the author or an administrator
// may edit.
func (s *Service) Edit(ctx context.Context, p *role.Principal, id int64, body string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.CanEdit(p) {
		return nil, fmt.Errorf("edit post: %w", core.ErrForbidden)
	}

	html, err := renderBody(body)
	if err != nil {
		return nil, fmt.Errorf("edit post: %w", err)
	}

	if err := s.repo.UpdateBody(ctx, id, body, html); err != nil {
		return nil, err
	}

	post.Body = body
	post.BodyHTML = html
	return post, nil
}

func renderBody(body string) (string, error) {
	if core.IsBlankMarkup(body) {
		return "", fmt.Errorf("empty body: %w", core.ErrInvalidInput)
	}
	return core.RenderPostHTML(body)
}

func (s *Service) Get(ctx context.Context, id int64) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) List(ctx context.Context, req core.PageRequest) (core.Page[Post], error) {
	return s.repo.List(ctx, req)
}

func (s *Service) ListByAuthor(ctx context.Context, authorID int64, req core.PageRequest) (core.Page[Post], error) {
	return s.repo.ListByAuthor(ctx, authorID, req)
}

// ListTimeline pages the posts by userID and everyone userID follows,
// newest first.
func (s *Service) ListTimeline(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Post], error) {
	return s.repo.ListTimeline(ctx, userID, req)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	return s.repo.CountByAuthor(ctx, authorID)
}
