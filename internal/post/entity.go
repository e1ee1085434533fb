// AngelaMos | 2026
// entity.go

package post

import (
	"time"

	"github.com/carterperez-dev/webuzz/internal/role"
)

type Post struct {
	ID               int64     `db:"id"`
	Body             string    `db:"body"`
	BodyHTML         string    `db:"body_html"`
	CreatedAt        time.Time `db:"created_at"`
	AuthorID         int64     `db:"author_id"`
	AuthorUsername   string    `db:"author_username"`
	AuthorAvatarHash string    `db:"author_avatar_hash"`
	AuthorGravatar   string    `db:"author_gravatar"`
	CommentCount     int       `db:"comment_count"`
}

// CanEdit reports whether p may change the post body.
func (post *Post) CanEdit(p *role.Principal) bool {
	if !p.IsAuthenticated() {
		return false
	}
	return p.UserID == post.AuthorID || p.Can(role.Admin)
}
