// AngelaMos | 2026
// service_test.go

package follow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

type edge struct{ follower, followed int64 }

type memRepo struct {
	edges map[edge]bool
	users []int64
}

func newMemRepo(users ...int64) *memRepo {
	m := &memRepo{edges: map[edge]bool{}, users: users}
	for _, id := range users {
		m.edges[edge{id, id}] = true
	}
	return m
}

func (m *memRepo) Insert(_ context.Context, a, b int64) (bool, error) {
	if m.edges[edge{a, b}] {
		return false, nil
	}
	m.edges[edge{a, b}] = true
	return true, nil
}

func (m *memRepo) Delete(_ context.Context, a, b int64) (bool, error) {
	if !m.edges[edge{a, b}] {
		return false, nil
	}
	delete(m.edges, edge{a, b})
	return true, nil
}

func (m *memRepo) Exists(_ context.Context, a, b int64) (bool, error) {
	return m.edges[edge{a, b}], nil
}

func (m *memRepo) list(match func(edge) (int64, bool), req core.PageRequest) core.Page[Entry] {
	var items []Entry
	for e := range m.edges {
		if e.follower == e.followed {
			continue
		}
		if id, ok := match(e); ok {
			items = append(items, Entry{UserID: id})
		}
	}
	return core.NewPage(items, req, len(items))
}

func (m *memRepo) ListFollowers(_ context.Context, id int64, req core.PageRequest) (core.Page[Entry], error) {
	return m.list(func(e edge) (int64, bool) { return e.follower, e.followed == id }, req), nil
}

func (m *memRepo) ListFollowed(_ context.Context, id int64, req core.PageRequest) (core.Page[Entry], error) {
	return m.list(func(e edge) (int64, bool) { return e.followed, e.follower == id }, req), nil
}

func (m *memRepo) CountFollowers(ctx context.Context, id int64) (int, error) {
	p, _ := m.ListFollowers(ctx, id, core.NewPageRequest(1, 100))
	return p.Total, nil
}

func (m *memRepo) CountFollowed(ctx context.Context, id int64) (int, error) {
	p, _ := m.ListFollowed(ctx, id, core.NewPageRequest(1, 100))
	return p.Total, nil
}

func (m *memRepo) AddSelfFollows(_ context.Context) (int64, error) {
	var added int64
	for _, id := range m.users {
		if !m.edges[edge{id, id}] {
			m.edges[edge{id, id}] = true
			added++
		}
	}
	return added, nil
}

func follower(id int64) *role.Principal {
	return &role.Principal{UserID: id, Permissions: role.Follow | role.Comment | role.Write}
}

func TestFollowThenUnfollow(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(1, 2))
	alice := follower(1)

	added, err := svc.Follow(ctx, alice, 2)
	require.NoError(t, err)
	assert.True(t, added)

	following, err := svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, following)

	followedBy, err := svc.IsFollowedBy(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, followedBy)

	removed, err := svc.Unfollow(ctx, alice, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	following, err = svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowTwiceIsIgnored(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(1, 2))

	_, err := svc.Follow(ctx, follower(1), 2)
	require.NoError(t, err)

	added, err := svc.Follow(ctx, follower(1), 2)
	require.NoError(t, err)
	assert.False(t, added)

	n, err := svc.CountFollowers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	removed, err := NewService(newMemRepo(1, 2)).Unfollow(context.Background(), follower(1), 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSelfFollowRejected(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(1)
	svc := NewService(repo)

	_, err := svc.Follow(ctx, follower(1), 1)
	assert.ErrorIs(t, err, ErrSelfFollow)

	_, err = svc.Unfollow(ctx, follower(1), 1)
	assert.ErrorIs(t, err, ErrSelfFollow)
	assert.True(t, repo.edges[edge{1, 1}])
}

func TestFollowNeedsPermission(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(1, 2))

	_, err := svc.Follow(ctx, nil, 2)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Follow(ctx, &role.Principal{UserID: 1, Permissions: role.Comment}, 2)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCountsExcludeSelfEdge(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo(1, 2, 3))

	_, err := svc.Follow(ctx, follower(2), 1)
	require.NoError(t, err)
	_, err = svc.Follow(ctx, follower(3), 1)
	require.NoError(t, err)

	followers, err := svc.CountFollowers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, followers)

	following, err := svc.CountFollowing(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, following)

	page, err := svc.Followers(ctx, 1, core.NewPageRequest(1, 50))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestAddSelfFollowsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{edges: map[edge]bool{}, users: []int64{1, 2}}
	svc := NewService(repo)

	require.NoError(t, svc.AddSelfFollows(ctx))
	require.NoError(t, svc.AddSelfFollows(ctx))

	assert.Len(t, repo.edges, 2)
	assert.True(t, repo.edges[edge{1, 1}])
	assert.True(t, repo.edges[edge{2, 2}])
}
