// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/webuzz/internal/auth"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

const pingInterval = time.Minute

// RoleSource resolves roles for registration and admin editing.
type RoleSource interface {
	Default(ctx context.Context) (*role.Role, error)
	ByName(ctx context.Context, name string) (*role.Role, error)
	ByID(ctx context.Context, id int64) (*role.Role, error)
	List(ctx context.Context) ([]role.Role, error)
}

type Service struct {
	repo       Repository
	roles      RoleSource
	adminEmail string
}

func NewService(repo Repository, roles RoleSource, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		roles:      roles,
		adminEmail: core.NormalizeEmail(adminEmail),
	}
}

func (s *Service) FindByID(ctx context.Context, id int64) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.info(), nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return u.info(), nil
}

// Register creates an unconfirmed account with the default role. The
// first account, and any account using the configured admin address,
// becomes a confirmed Administrator instead.
func (s *Service) Register(ctx context.Context, email, username, passwordHash string) (*auth.UserInfo, error) {
	u := &User{
		Username:        username,
		PasswordHash:    passwordHash,
		DefaultGravatar: core.DefaultGravatarStyle,
	}
	u.SetEmail(email)

	var firstAdmin *role.Role
	if s.adminEmail != "" && u.Email == s.adminEmail {
		admin, err := s.roles.ByName(ctx, role.NameAdministrator)
		if err != nil {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
		u.assignRole(admin)
		u.Confirmed = true
	} else {
		def, err := s.roles.Default(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
		u.assignRole(def)

		if firstAdmin, err = s.firstAdminCandidate(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, u, firstAdmin); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.RoleName)
	return u.info(), nil
}

// firstAdminCandidate returns the Administrator role while no account
// exists. The count is only a hint; Create makes the final call.
func (s *Service) firstAdminCandidate(ctx context.Context) (*role.Role, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}

	admin, err := s.roles.ByName(ctx, role.NameAdministrator)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}
	return admin, nil
}

func (s *Service) Confirm(ctx context.Context, id int64) error {
	return s.repo.SetConfirmed(ctx, id)
}

func (s *Service) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) IncrementTokenVersion(ctx context.Context, id int64) error {
	return s.repo.IncrementTokenVersion(ctx, id)
}

func (s *Service) ChangeEmail(ctx context.Context, id int64, email string) error {
	email = core.NormalizeEmail(email)
	return s.repo.UpdateEmail(ctx, id, email, core.AvatarHash(email))
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, core.NormalizeEmail(email), 0)
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, username, 0)
}

func (s *Service) Ping(ctx context.Context, id int64) error {
	return s.repo.Ping(ctx, id, time.Now().Add(-pingInterval))
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Roles(ctx context.Context) ([]role.Role, error) {
	return s.roles.List(ctx)
}

type ProfileInput struct {
	Name            string
	Location        string
	AboutMe         string
	DefaultGravatar string
}

// UpdateProfile edits the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, p *role.Principal, in ProfileInput) (*User, error) {
	if !p.IsAuthenticated() {
		return nil, fmt.Errorf("update profile: %w", core.ErrUnauthorized)
	}

	u, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	u.Name = in.Name
	u.Location = in.Location
	u.AboutMe = in.AboutMe
	if slices.Contains(core.GravatarStyles, in.DefaultGravatar) {
		u.DefaultGravatar = in.DefaultGravatar
	}

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

type AccountInput struct {
	Email     string
	Username  string
	Confirmed bool
	RoleID    int64
	Name      string
	Location  string
	AboutMe   string
}

// UpdateAccount applies an administrator's edit to any user. Taken emails
// and usernames are reported as core.ErrEmailTaken and
// core.ErrUsernameTaken.
func (s *Service) UpdateAccount(ctx context.Context, p *role.Principal, id int64, in AccountInput) (*User, error) {
	if !p.IsAdministrator() {
		return nil, fmt.Errorf("update account: %w", core.ErrForbidden)
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := core.NormalizeEmail(in.Email)
	if taken, err := s.repo.ExistsByEmail(ctx, email, id); err != nil {
		return nil, err
	} else if taken {
		return nil, core.ErrEmailTaken
	}

	username := strings.TrimSpace(in.Username)
	if taken, err := s.repo.ExistsByUsername(ctx, username, id); err != nil {
		return nil, err
	} else if taken {
		return nil, core.ErrUsernameTaken
	}

	r, err := s.roles.ByID(ctx, in.RoleID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("update account: unknown role: %w", core.ErrInvalidInput)
		}
		return nil, err
	}

	u.SetEmail(email)
	u.Username = username
	u.Confirmed = in.Confirmed
	u.assignRole(r)
	u.Name = in.Name
	u.Location = in.Location
	u.AboutMe = in.AboutMe

	if err := s.repo.UpdateAccount(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("account updated by admin", "user_id", u.ID, "admin_id", p.UserID, "role", u.RoleName)
	return u, nil
}

var _ auth.UserProvider = (*Service)(nil)
