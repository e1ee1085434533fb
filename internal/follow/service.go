// AngelaMos | 2026
// service.go

package follow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Follow adds the caller -> targetID edge. It reports false when the edge
// already existed.
func (s *Service) Follow(ctx context.Context, p *role.Principal, targetID int64) (bool, error) {
	if !p.Can(role.Follow) {
		return false, fmt.Errorf("follow: %w", core.ErrForbidden)
	}
	if p.UserID == targetID {
		return false, ErrSelfFollow
	}
	return s.repo.Insert(ctx, p.UserID, targetID)
}

// Unfollow removes the caller -> targetID edge. It reports false when
// there was none. The self-follow edge is never removed.
func (s *Service) Unfollow(ctx context.Context, p *role.Principal, targetID int64) (bool, error) {
	if !p.Can(role.Follow) {
		return false, fmt.Errorf("unfollow: %w", core.ErrForbidden)
	}
	if p.UserID == targetID {
		return false, ErrSelfFollow
	}
	return s.repo.Delete(ctx, p.UserID, targetID)
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	return s.repo.Exists(ctx, followerID, followedID)
}

func (s *Service) IsFollowedBy(ctx context.Context, userID, followerID int64) (bool, error) {
	return s.repo.Exists(ctx, followerID, userID)
}

func (s *Service) Followers(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error) {
	return s.repo.ListFollowers(ctx, userID, req)
}

func (s *Service) Followed(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error) {
	return s.repo.ListFollowed(ctx, userID, req)
}

func (s *Service) CountFollowers(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountFollowers(ctx, userID)
}

func (s *Service) CountFollowing(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountFollowed(ctx, userID)
}

// AddSelfFollows is the idempotent maintenance step run at deploy time.
func (s *Service) AddSelfFollows(ctx context.Context) error {
	added, err := s.repo.AddSelfFollows(ctx)
	if err != nil {
		return err
	}
	slog.Info("self follows ensured", "added", added)
	return nil
}
