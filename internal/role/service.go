// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"fmt"
	"log/slog"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// InsertRoles brings the roles table in line with Seeds. Existing rows are
// updated in place and missing ones created, so repeated runs converge.
func (s *Service) InsertRoles(ctx context.Context) error {
	if err := validateSeeds(Seeds); err != nil {
		return err
	}

	if err := s.repo.Sync(ctx, Seeds); err != nil {
		return fmt.Errorf("insert roles: %w", err)
	}

	slog.Info("roles synchronized", "count", len(Seeds))
	return nil
}

func (s *Service) Default(ctx context.Context) (*Role, error) {
	return s.repo.GetDefault(ctx)
}

func (s *Service) ByName(ctx context.Context, name string) (*Role, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) ByID(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

func validateSeeds(seeds []Seed) error {
	defaults := 0
	names := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("role seed %q listed twice", s.Name)
		}
		names[s.Name] = struct{}{}
		if s.Default {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("role seeds need exactly one default, got %d", defaults)
	}
	return nil
}
