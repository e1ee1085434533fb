// AngelaMos | 2026
// entity.go

package role

import "time"

// Permission is a capability bitmask. A set is the bitwise OR of its flags.
type Permission int

const (
	Follow   Permission = 1
	Comment  Permission = 2
	Write    Permission = 4
	Moderate Permission = 8
	Admin    Permission = 16
)

// Has reports whether every bit of want is present.
func (p Permission) Has(want Permission) bool {
	return p&want == want
}

const (
	NameUser          = "User"
	NameModerator     = "Moderator"
	NameAdministrator = "Administrator"
)

type Seed struct {
	Name        string
	Permissions Permission
	Default     bool
}

// Seeds is the fixed role table applied at deploy time.
var Seeds = []Seed{
	{Name: NameUser, Permissions: Follow | Comment | Write, Default: true},
	{Name: NameModerator, Permissions: Follow | Comment | Write | Moderate},
	{
		Name:        NameAdministrator,
		Permissions: Follow | Comment | Write | Moderate | Admin,
	},
}

type Role struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Default     bool       `db:"is_default"`
	Permissions Permission `db:"permissions"`
}

func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions.Has(p)
}

func (r *Role) AddPermission(p Permission) {
	r.Permissions |= p
}

func (r *Role) RemovePermission(p Permission) {
	r.Permissions &^= p
}

func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

// Principal is the caller of a request. A nil *Principal is anonymous and
// holds no permissions.
type Principal struct {
	UserID      int64
	Username    string
	Email       string
	Confirmed   bool
	Role        string
	Permissions Permission
	SessionID   string
	Remember    bool
	ExpiresAt   time.Time
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil
}

func (p *Principal) Can(perm Permission) bool {
	if p == nil {
		return false
	}
	return p.Permissions.Has(perm)
}

func (p *Principal) IsAdministrator() bool {
	return p.Can(Admin)
}
