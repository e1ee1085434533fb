// AngelaMos | 2026
// entity.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type UserInfo struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Confirmed    bool
	RoleName     string
	Permissions  role.Permission
	TokenVersion int
	LastSeen     time.Time
}

func (u *UserInfo) Principal(claims *SessionClaims) *role.Principal {
	p := &role.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Confirmed:   u.Confirmed,
		Role:        u.RoleName,
		Permissions: u.Permissions,
	}
	if claims != nil {
		p.SessionID = claims.ID
		p.Remember = claims.Remember
		p.ExpiresAt = claims.ExpiresAt
	}
	return p
}

// UserProvider is the account store the auth flows run against.
type UserProvider interface {
	FindByID(ctx context.Context, id int64) (*UserInfo, error)
	FindByEmail(ctx context.Context, email string) (*UserInfo, error)
	Register(ctx context.Context, email, username, passwordHash string) (*UserInfo, error)
	Confirm(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id int64) error
	ChangeEmail(ctx context.Context, id int64, email string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Ping(ctx context.Context, id int64) error
}

// Mailer queues a templated message. Delivery is not awaited.
type Mailer interface {
	Send(to, subject, template string, data map[string]any)
}

type Blacklist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistNamespace = "blacklist"

type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, core.RedisKey(blacklistNamespace, jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, core.RedisKey(blacklistNamespace, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}
