// AngelaMos | 2026
// handler_test.go

package comment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/web"
)

func newTestRouter(t *testing.T) (http.Handler, *memRepo) {
	t.Helper()

	render, err := web.NewRenderer("Webuzz")
	require.NoError(t, err)

	svc, repo := newTestService()
	h := NewHandler(svc, render, middleware.NewGate(render, "/auth/login", "/auth/unconfirmed"), 30)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

func serve(h http.Handler, target string, p *role.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestModerateToggleRedirectsToSamePage(t *testing.T) {
	router, repo := newTestRouter(t)
	require.NoError(t, repo.Create(context.Background(), &Comment{PostID: 1, Body: "x", BodyHTML: "x"}))

	rec := serve(router, "/moderate/disable/1?page=3", moderator)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/moderate?page=3", rec.Header().Get("Location"))
	assert.True(t, repo.items[0].Disabled)

	rec = serve(router, "/moderate/enable/1", moderator)
	assert.Equal(t, "/moderate?page=1", rec.Header().Get("Location"))
	assert.False(t, repo.items[0].Disabled)
}

func TestModerateRequiresPermission(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusForbidden, serve(router, "/moderate/", commenter).Code)
	assert.Equal(t, http.StatusFound, serve(router, "/moderate/", nil).Code)
}

func TestModerateUnknownCommentIs404(t *testing.T) {
	router, _ := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, serve(router, "/moderate/disable/5", moderator).Code)
}

func TestModerateListsDisabledBodies(t *testing.T) {
	router, repo := newTestRouter(t)
	require.NoError(t, repo.Create(context.Background(), &Comment{PostID: 1, Body: "hidden", BodyHTML: "hidden text", Disabled: true}))

	rec := serve(router, "/moderate/", moderator)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hidden text")
	assert.Contains(t, rec.Body.String(), "/moderate/enable/1")
}
