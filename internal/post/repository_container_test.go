//go:build container

// AngelaMos | 2026
// repository_container_test.go

package post_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/comment"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/follow"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/testhelpers"
	"github.com/carterperez-dev/webuzz/internal/user"
)

func TestRepositoryTimelineAndComments(t *testing.T) {
	db := testhelpers.Postgres(t)
	ctx := context.Background()

	roles := role.NewService(role.NewRepository(db))
	require.NoError(t, roles.InsertRoles(ctx))
	users := user.NewService(user.NewRepository(db), roles, "")

	alice, err := users.Register(ctx, "alice@example.com", "alice", "x")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "bob@example.com", "bob", "x")
	require.NoError(t, err)
	carol, err := users.Register(ctx, "carol@example.com", "carol", "x")
	require.NoError(t, err)

	repo := post.NewRepository(db)
	write := func(author int64, body string) *post.Post {
		p := &post.Post{Body: body, BodyHTML: "<p>" + body + "</p>", AuthorID: author}
		require.NoError(t, repo.Create(ctx, p))
		return p
	}
	own := write(alice.ID, "mine")
	followed := write(bob.ID, "bob's")
	write(carol.ID, "carol's")

	_, err = follow.NewRepository(db).Insert(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	timeline, err := repo.ListTimeline(ctx, alice.ID, core.NewPageRequest(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 2, timeline.Total)
	ids := []int64{timeline.Items[0].ID, timeline.Items[1].ID}
	assert.ElementsMatch(t, []int64{own.ID, followed.ID}, ids)

	all, err := repo.List(ctx, core.NewPageRequest(core.LastPage, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page)
	assert.Len(t, all.Items, 1)

	comments := comment.NewRepository(db)
	first := &comment.Comment{Body: "a", BodyHTML: "a", AuthorID: bob.ID, PostID: own.ID}
	require.NoError(t, comments.Create(ctx, first))
	require.NoError(t, comments.Create(ctx, &comment.Comment{Body: "b", BodyHTML: "b", AuthorID: carol.ID, PostID: own.ID}))
	require.NoError(t, comments.SetDisabled(ctx, first.ID, true))

	visible, err := comments.ListForPost(ctx, own.ID, core.NewPageRequest(1, 30))
	require.NoError(t, err)
	require.Len(t, visible.Items, 1)
	assert.Equal(t, "carol", visible.Items[0].AuthorUsername)

	queue, err := comments.ListAll(ctx, core.NewPageRequest(1, 30))
	require.NoError(t, err)
	assert.Equal(t, 2, queue.Total)

	got, err := repo.GetByID(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)
	assert.Equal(t, "alice", got.AuthorUsername)

	require.NoError(t, repo.UpdateBody(ctx, own.ID, "edited", "<p>edited</p>"))
	edited, err := repo.GetByID(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Body)
	assert.True(t, got.CreatedAt.Equal(edited.CreatedAt))

	err = comments.Create(ctx, &comment.Comment{Body: "x", BodyHTML: "x", AuthorID: bob.ID, PostID: 9999})
	assert.ErrorIs(t, err, core.ErrNotFound)
}
