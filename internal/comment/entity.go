// AngelaMos | 2026
// entity.go

package comment

import "time"

type Comment struct {
	ID               int64     `db:"id"`
	Body             string    `db:"body"`
	BodyHTML         string    `db:"body_html"`
	CreatedAt        time.Time `db:"created_at"`
	Disabled         bool      `db:"disabled"`
	AuthorID         int64     `db:"author_id"`
	PostID           int64     `db:"post_id"`
	AuthorUsername   string    `db:"author_username"`
	AuthorAvatarHash string    `db:"author_avatar_hash"`
	AuthorGravatar   string    `db:"author_gravatar"`
}
