// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/webuzz/internal/auth"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

// User is an account row joined with its role.
type User struct {
	ID              int64           `db:"id"`
	Email           string          `db:"email"`
	Username        string          `db:"username"`
	PasswordHash    string          `db:"password_hash"`
	Confirmed       bool            `db:"confirmed"`
	RoleID          int64           `db:"role_id"`
	RoleName        string          `db:"role_name"`
	Permissions     role.Permission `db:"permissions"`
	Name            string          `db:"name"`
	Location        string          `db:"location"`
	AboutMe         string          `db:"about_me"`
	MemberSince     time.Time       `db:"member_since"`
	LastSeen        time.Time       `db:"last_seen"`
	AvatarHash      string          `db:"avatar_hash"`
	DefaultGravatar string          `db:"default_gravatar"`
	TokenVersion    int             `db:"token_version"`
}

func (u *User) Can(p role.Permission) bool {
	return u.Permissions.Has(p)
}

func (u *User) IsAdministrator() bool {
	return u.Can(role.Admin)
}

func (u *User) Gravatar(size int) string {
	return core.GravatarURL(u.AvatarHash, u.DefaultGravatar, size)
}

// SetEmail stores a case-folded email and refreshes the avatar hash.
func (u *User) SetEmail(email string) {
	u.AvatarHash = core.AvatarHash(email)
	u.Email = core.NormalizeEmail(email)
}

func (u *User) assignRole(r *role.Role) {
	u.RoleID = r.ID
	u.RoleName = r.Name
	u.Permissions = r.Permissions
}

func (u *User) info() *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Confirmed:    u.Confirmed,
		RoleName:     u.RoleName,
		Permissions:  u.Permissions,
		TokenVersion: u.TokenVersion,
		LastSeen:     u.LastSeen,
	}
}
