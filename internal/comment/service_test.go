// AngelaMos | 2026
// service_test.go

package comment

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type memRepo struct {
	items []Comment
}

func (m *memRepo) Create(_ context.Context, c *Comment) error {
	c.ID = int64(len(m.items) + 1)
	m.items = append(m.items, *c)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Comment, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			c := m.items[i]
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memRepo) ListForPost(_ context.Context, postID int64, req core.PageRequest) (core.Page[Comment], error) {
	var items []Comment
	for _, c := range m.items {
		if c.PostID == postID && !c.Disabled {
			items = append(items, c)
		}
	}
	return paginate(items, req), nil
}

func (m *memRepo) ListAll(_ context.Context, req core.PageRequest) (core.Page[Comment], error) {
	items := slices.Clone(m.items)
	slices.Reverse(items)
	return paginate(items, req), nil
}

func paginate(items []Comment, req core.PageRequest) core.Page[Comment] {
	total := len(items)
	req = req.Resolve(total)
	start := min(req.Offset(), total)
	end := min(start+req.Limit(), total)
	return core.NewPage(items[start:end], req, total)
}

func (m *memRepo) SetDisabled(_ context.Context, id int64, disabled bool) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Disabled = disabled
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	return len(m.items), nil
}

type postSet map[int64]bool

func (p postSet) Exists(_ context.Context, id int64) (bool, error) {
	return p[id], nil
}

var (
	commenter = &role.Principal{UserID: 2, Username: "bob", Permissions: role.Follow | role.Comment | role.Write}
	moderator = &role.Principal{UserID: 3, Username: "mod", Permissions: role.Follow | role.Comment | role.Write | role.Moderate}
)

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{}
	return NewService(repo, postSet{1: true}), repo
}

func TestCreateComment(t *testing.T) {
	svc, repo := newTestService()

	c, err := svc.Create(context.Background(), commenter, 1, "nice **post**")
	require.NoError(t, err)

	assert.Equal(t, int64(1), c.PostID)
	assert.Equal(t, int64(2), c.AuthorID)
	assert.False(t, c.Disabled)
	assert.Contains(t, c.BodyHTML, "<strong>post</strong>")
	assert.Len(t, repo.items, 1)
}

func TestCreateCommentDropsBlockMarkup(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.Create(context.Background(), commenter, 1, "# heading")
	require.NoError(t, err)
	assert.NotContains(t, c.BodyHTML, "<h1>")
}

func TestCreateCommentRejections(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, 1, "hi")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, commenter, 1, "  ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, commenter, 7, "hi")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, repo.items)
}

func TestDisabledCommentsLeavePostListing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, commenter, 1, "one")
	require.NoError(t, err)
	_, err = svc.Create(ctx, commenter, 1, "two")
	require.NoError(t, err)

	require.NoError(t, svc.SetDisabled(ctx, moderator, first.ID, true))

	page, err := svc.ListForPost(ctx, 1, core.NewPageRequest(1, 30))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "two", page.Items[0].Body)

	queue, err := svc.Queue(ctx, moderator, core.NewPageRequest(1, 30))
	require.NoError(t, err)
	assert.Len(t, queue.Items, 2)

	require.NoError(t, svc.SetDisabled(ctx, moderator, first.ID, false))
	page, err = svc.ListForPost(ctx, 1, core.NewPageRequest(1, 30))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestModerationNeedsPermission(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Queue(ctx, commenter, core.NewPageRequest(1, 30))
	assert.ErrorIs(t, err, core.ErrForbidden)

	assert.ErrorIs(t, svc.SetDisabled(ctx, commenter, 1, true), core.ErrForbidden)
}

func TestCommentLastPage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for range 31 {
		_, err := svc.Create(ctx, commenter, 1, "c")
		require.NoError(t, err)
	}

	page, err := svc.ListForPost(ctx, 1, core.NewPageRequest(core.LastPage, 30))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 1)
}
