// AngelaMos | 2026
// dto.go

package api

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/user"
)

type UserResponse struct {
	URL              string    `json:"url"`
	Username         string    `json:"username"`
	MemberSince      time.Time `json:"member_since"`
	LastSeen         time.Time `json:"last_seen"`
	PostsURL         string    `json:"posts_url"`
	FollowedPostsURL string    `json:"followed_posts_url"`
	PostCount        int       `json:"post_count"`
}

type PostResponse struct {
	URL          string    `json:"url"`
	Body         string    `json:"body"`
	BodyHTML     string    `json:"body_html"`
	Timestamp    time.Time `json:"timestamp"`
	AuthorURL    string    `json:"author_url"`
	CommentCount int       `json:"comment_count"`
}

// ListResponse is one page of a collection. Prev and Next are absolute
// links, null at either end.
type ListResponse[T any] struct {
	Items []T     `json:"items"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
	Count int     `json:"count"`
}

func userURL(origin string, id int64) string {
	return fmt.Sprintf("%s%s/users/%d", origin, Prefix, id)
}

func toUserResponse(origin string, u *user.User, postCount int) UserResponse {
	self := userURL(origin, u.ID)
	return UserResponse{
		URL:              self,
		Username:         u.Username,
		MemberSince:      u.MemberSince.UTC(),
		LastSeen:         u.LastSeen.UTC(),
		PostsURL:         self + "/posts/",
		FollowedPostsURL: self + "/timeline/",
		PostCount:        postCount,
	}
}

func toPostResponse(origin string, p post.Post) PostResponse {
	return PostResponse{
		URL:          fmt.Sprintf("%s/post/%d", origin, p.ID),
		Body:         p.Body,
		BodyHTML:     p.BodyHTML,
		Timestamp:    p.CreatedAt.UTC(),
		AuthorURL:    userURL(origin, p.AuthorID),
		CommentCount: p.CommentCount,
	}
}
