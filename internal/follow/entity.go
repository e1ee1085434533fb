// AngelaMos | 2026
// entity.go

package follow

import (
	"errors"
	"time"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

// Entry is one row of a followers or followed-by listing: the user on the
// other end of the edge and when the edge was made.
type Entry struct {
	UserID          int64     `db:"user_id"`
	Username        string    `db:"username"`
	AvatarHash      string    `db:"avatar_hash"`
	DefaultGravatar string    `db:"default_gravatar"`
	CreatedAt       time.Time `db:"created_at"`
}
