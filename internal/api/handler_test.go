// AngelaMos | 2026
// handler_test.go

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/user"
	"github.com/carterperez-dev/webuzz/internal/web"
)

type fakeUsers map[int64]*user.User

func (f fakeUsers) Get(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

type fakePosts struct {
	byAuthor map[int64][]post.Post
}

func (f *fakePosts) page(items []post.Post, req core.PageRequest) core.Page[post.Post] {
	req = req.Resolve(len(items))
	start := min(req.Offset(), len(items))
	end := min(start+req.Limit(), len(items))
	return core.NewPage(items[start:end], req, len(items))
}

func (f *fakePosts) ListByAuthor(_ context.Context, authorID int64, req core.PageRequest) (core.Page[post.Post], error) {
	return f.page(f.byAuthor[authorID], req), nil
}

func (f *fakePosts) ListTimeline(_ context.Context, userID int64, req core.PageRequest) (core.Page[post.Post], error) {
	return f.page(f.byAuthor[userID], req), nil
}

func (f *fakePosts) CountByAuthor(_ context.Context, authorID int64) (int, error) {
	return len(f.byAuthor[authorID]), nil
}

func newTestRouter(t *testing.T, postCount int) http.Handler {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]post.Post, 0, postCount)
	for i := range postCount {
		posts = append(posts, post.Post{
			ID:        int64(postCount - i),
			Body:      "hello",
			BodyHTML:  "<p>hello</p>",
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			AuthorID:  42,
		})
	}

	users := fakeUsers{42: {ID: 42, Username: "alice", MemberSince: now, LastSeen: now}}
	render, err := web.NewRenderer("webuzz")
	require.NoError(t, err)

	h := NewHandler(users, &fakePosts{byAuthor: map[int64][]post.Post{42: posts}}, render, 20, "http://blog.test")

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	return getAccepting(t, h, target, "application/json")
}

func getAccepting(t *testing.T, h http.Handler, target, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUserPostsSecondPage(t *testing.T) {
	rec := get(t, newTestRouter(t, 25), "/api/v1/users/42/posts/?page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse[PostResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Items, 5)
	assert.Equal(t, 25, body.Count)
	require.NotNil(t, body.Prev)
	assert.Equal(t, "http://blog.test/api/v1/users/42/posts/?page=1", *body.Prev)
	assert.Nil(t, body.Next)
}

func TestUserPostsFirstPage(t *testing.T) {
	rec := get(t, newTestRouter(t, 25), "/api/v1/users/42/posts/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse[PostResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Items, 20)
	assert.Nil(t, body.Prev)
	require.NotNil(t, body.Next)
	assert.Equal(t, "http://blog.test/api/v1/users/42/posts/?page=2", *body.Next)

	first := body.Items[0]
	assert.Equal(t, "http://blog.test/post/25", first.URL)
	assert.Equal(t, "http://blog.test/api/v1/users/42", first.AuthorURL)
	assert.Equal(t, "<p>hello</p>", first.BodyHTML)
}

func TestEmptyListSerializesEmptyItems(t *testing.T) {
	rec := get(t, newTestRouter(t, 0), "/api/v1/users/42/timeline/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"prev":null,"next":null,"count":0}`, rec.Body.String())
}

func TestGetUser(t *testing.T) {
	rec := get(t, newTestRouter(t, 3), "/api/v1/users/42")
	require.Equal(t, http.StatusOK, rec.Code)

	var body UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, 3, body.PostCount)
	assert.Equal(t, "http://blog.test/api/v1/users/42", body.URL)
	assert.Equal(t, "http://blog.test/api/v1/users/42/posts/", body.PostsURL)
	assert.Equal(t, "http://blog.test/api/v1/users/42/timeline/", body.FollowedPostsURL)
}

func TestUnknownUserIsJSON404(t *testing.T) {
	for _, target := range []string{"/api/v1/users/7", "/api/v1/users/7/posts/", "/api/v1/users/abc"} {
		rec := get(t, newTestRouter(t, 0), target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String(), target)
	}
}

func TestUnknownUserFromBrowserGetsErrorPage(t *testing.T) {
	h := newTestRouter(t, 0)

	for _, accept := range []string{"text/html,application/xhtml+xml,*/*;q=0.8", ""} {
		rec := getAccepting(t, h, "/api/v1/users/999", accept)
		assert.Equal(t, http.StatusNotFound, rec.Code, accept)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", accept)
		assert.Contains(t, rec.Body.String(), "The page you asked for does not exist.", accept)
	}
}

func TestHugePageIsEmptyNotAnError(t *testing.T) {
	rec := get(t, newTestRouter(t, 25), "/api/v1/users/42/posts/?page=922337203685477580")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse[PostResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Items)
	assert.Nil(t, body.Next)
	assert.NotNil(t, body.Prev)
}
