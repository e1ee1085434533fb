// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidLink        = errors.New("link invalid or expired")
)

// pingInterval throttles last_seen writes per user.
const pingInterval = time.Minute

type Session struct {
	Token     string
	ExpiresAt time.Time
	Remember  bool
	User      *UserInfo
}

type Service struct {
	jwt       *JWTManager
	users     UserProvider
	blacklist Blacklist
	mailer    Mailer
	appName   string
	passwords *core.Passwords
	now       func() time.Time
}

func NewService(
	jwt *JWTManager,
	users UserProvider,
	blacklist Blacklist,
	mailer Mailer,
	appName string,
) *Service {
	return &Service{
		jwt:       jwt,
		users:     users,
		blacklist: blacklist,
		mailer:    mailer,
		appName:   appName,
		passwords: core.DefaultPasswords,
		now:       time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.passwords.Burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.newSession(user, remember)
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register creates an account and queues its confirmation mail. Taken
// emails and usernames come back as core.ErrEmailTaken and
// core.ErrUsernameTaken whether the pre-check or the insert caught them.
func (s *Service) Register(ctx context.Context, in RegisterInput, origin string) (*UserInfo, error) {
	email := core.NormalizeEmail(in.Email)

	if taken, err := s.users.EmailExists(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, core.ErrEmailTaken
	}

	if taken, err := s.users.UsernameExists(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, core.ErrUsernameTaken
	}

	passwordHash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Register(ctx, email, in.Username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if !user.Confirmed {
		if err := s.sendConfirmation(user, origin); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *Service) Logout(ctx context.Context, p *role.Principal) error {
	if !p.IsAuthenticated() || p.SessionID == "" {
		return nil
	}

	if err := s.blacklist.Revoke(ctx, p.SessionID, p.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// Confirm marks the caller confirmed when token was issued to them. It
// reports false for tokens that are invalid, expired or someone else's.
func (s *Service) Confirm(ctx context.Context, p *role.Principal, token string) (bool, error) {
	if p.Confirmed {
		return true, nil
	}

	claims, err := s.jwt.VerifyAction(token, PurposeConfirm)
	if err != nil || claims.UserID != p.UserID {
		return false, nil
	}

	if err := s.users.Confirm(ctx, p.UserID); err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}

	return true, nil
}

func (s *Service) ResendConfirmation(ctx context.Context, p *role.Principal, origin string) error {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return s.sendConfirmation(user, origin)
}

// ChangePassword replaces the caller's password and invalidates every
// other session. The returned session replaces the caller's current one.
func (s *Service) ChangePassword(
	ctx context.Context,
	p *role.Principal,
	oldPassword, newPassword string,
) (*Session, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, _, err := s.passwords.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return nil, err
	}
	user.TokenVersion++

	//nolint:errcheck // the bumped token version already rejects the old session
	_ = s.Logout(ctx, p)

	return s.newSession(user, p.Remember)
}

// RequestPasswordReset mails a reset link when email belongs to an
// account. Unknown addresses are accepted silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email, origin string) error {
	user, err := s.users.FindByEmail(ctx, core.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := s.jwt.IssueAction(ActionClaims{Purpose: PurposeReset, UserID: user.ID})
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	s.mailer.Send(user.Email, "Reset Your Password", "reset_password", map[string]any{
		"Username": user.Username,
		"AppName":  s.appName,
		"Link":     origin + "/auth/reset/" + token,
	})
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwt.VerifyAction(token, PurposeReset)
	if err != nil {
		return ErrInvalidLink
	}

	if err := s.setPassword(ctx, claims.UserID, newPassword); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrInvalidLink
		}
		return err
	}

	return nil
}

// RequestEmailChange sends a confirmation link to newEmail once the
// caller's password checks out.
func (s *Service) RequestEmailChange(
	ctx context.Context,
	p *role.Principal,
	newEmail, password, origin string,
) error {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	newEmail = core.NormalizeEmail(newEmail)
	if taken, err := s.users.EmailExists(ctx, newEmail); err != nil {
		return fmt.Errorf("check email: %w", err)
	} else if taken {
		return core.ErrEmailTaken
	}

	token, err := s.jwt.IssueAction(ActionClaims{
		Purpose:  PurposeChangeEmail,
		UserID:   user.ID,
		NewEmail: newEmail,
	})
	if err != nil {
		return fmt.Errorf("issue email token: %w", err)
	}

	s.mailer.Send(newEmail, "Confirm your email address", "change_email", map[string]any{
		"Username": user.Username,
		"AppName":  s.appName,
		"Link":     origin + "/auth/change_email/" + token,
	})
	return nil
}

// ChangeEmail applies a change-email token issued to the caller.
func (s *Service) ChangeEmail(ctx context.Context, p *role.Principal, token string) error {
	claims, err := s.jwt.VerifyAction(token, PurposeChangeEmail)
	if err != nil || claims.UserID != p.UserID {
		return ErrInvalidLink
	}

	if err := s.users.ChangeEmail(ctx, p.UserID, claims.NewEmail); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return ErrInvalidLink
		}
		return fmt.Errorf("change email: %w", err)
	}

	return nil
}

// ResolveSession turns a session cookie value into the caller. It also
// refreshes last_seen at most once per pingInterval.
func (s *Service) ResolveSession(ctx context.Context, token string) (*role.Principal, error) {
	claims, err := s.jwt.VerifySession(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("resolve session: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("resolve session: %w", core.ErrTokenRevoked)
	}

	if s.now().Sub(user.LastSeen) >= pingInterval {
		if err := s.users.Ping(ctx, user.ID); err != nil {
			slog.Warn("update last seen", "error", err, "user_id", user.ID)
		}
	}

	return user.Principal(claims), nil
}

func (s *Service) newSession(user *UserInfo, remember bool) (*Session, error) {
	token, claims, err := s.jwt.IssueSession(user.ID, user.TokenVersion, remember)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		Remember:  remember,
		User:      user,
	}, nil
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) sendConfirmation(user *UserInfo, origin string) error {
	token, err := s.jwt.IssueAction(ActionClaims{Purpose: PurposeConfirm, UserID: user.ID})
	if err != nil {
		return fmt.Errorf("issue confirmation token: %w", err)
	}

	s.mailer.Send(user.Email, "Confirm Your Account", "confirm", map[string]any{
		"Username": user.Username,
		"AppName":  s.appName,
		"Link":     origin + "/auth/confirm/" + token,
	})
	return nil
}
