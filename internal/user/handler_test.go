// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/web"
)

type noPosts struct{}

func (noPosts) ListByAuthor(_ context.Context, _ int64, req core.PageRequest) (core.Page[post.Post], error) {
	return core.NewPage[post.Post](nil, req, 0), nil
}

type fixedFollows struct{ following bool }

func (f fixedFollows) IsFollowing(context.Context, int64, int64) (bool, error) { return f.following, nil }
func (fixedFollows) CountFollowers(context.Context, int64) (int, error)        { return 4, nil }
func (fixedFollows) CountFollowing(context.Context, int64) (int, error)        { return 2, nil }

type handlerFixture struct {
	router http.Handler
	svc    *Service
	admin  *role.Principal
	alice  *role.Principal
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctx := context.Background()

	render, err := web.NewRenderer("Webuzz")
	require.NoError(t, err)
	gate := middleware.NewGate(render, "/auth/login", "/auth/unconfirmed")

	svc, _ := newTestService("")
	admin, err := svc.Register(ctx, "root@example.com", "root", "hash")
	require.NoError(t, err)
	alice, err := svc.Register(ctx, "alice@example.com", "alice", "hash")
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(svc, noPosts{}, fixedFollows{following: true}, render, gate, 20).RegisterRoutes(r)

	return &handlerFixture{router: r, svc: svc, admin: admin.Principal(nil), alice: alice.Principal(nil)}
}

func (f *handlerFixture) do(method, target string, form url.Values, p *role.Principal) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestEditProfileAnonymousRedirectsToLogin(t *testing.T) {
	rec := newHandlerFixture(t).do(http.MethodGet, "/edit-profile", nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fedit-profile", rec.Header().Get("Location"))
}

func TestProfilePage(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodGet, "/user/alice", nil, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Followers: 4")
	assert.Contains(t, body, "/unfollow/alice")
	assert.Contains(t, body, "alice@example.com")

	rec = f.do(http.MethodGet, "/user/alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice@example.com")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/user/nobody", nil, nil).Code)
}

func TestEditOwnProfile(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/edit-profile", url.Values{
		"name":             {"Alice"},
		"location":         {"Paris"},
		"about_me":         {"hello"},
		"default_gravatar": {"retro"},
	}, f.alice)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/alice", rec.Header().Get("Location"))

	u, err := f.svc.Get(context.Background(), f.alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", u.Location)
}

func TestAdminEditRequiresAdmin(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodGet, "/edit-profile/2", nil, f.alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/edit-profile/2", nil, f.admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminEditReportsTakenUsername(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/edit-profile/2", url.Values{
		"email":    {"alice@example.com"},
		"username": {"root"},
		"role":     {"1"},
	}, f.admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already in use.")
}
