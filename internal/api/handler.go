// AngelaMos | 2026
// handler.go

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/user"
	"github.com/carterperez-dev/webuzz/internal/web"
)

const Prefix = "/api/v1"

type UserSource interface {
	Get(ctx context.Context, id int64) (*user.User, error)
}

type PostSource interface {
	ListByAuthor(ctx context.Context, authorID int64, req core.PageRequest) (core.Page[post.Post], error)
	ListTimeline(ctx context.Context, userID int64, req core.PageRequest) (core.Page[post.Post], error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
}

type Handler struct {
	users   UserSource
	posts   PostSource
	render  *web.Renderer
	perPage int
	baseURL string
}

func NewHandler(users UserSource, posts PostSource, render *web.Renderer, perPage int, baseURL string) *Handler {
	return &Handler{users: users, posts: posts, render: render, perPage: perPage, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(Prefix, func(r chi.Router) {
		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/posts/", h.listPosts("posts", h.posts.ListByAuthor))
		r.Get("/users/{id}/timeline/", h.listPosts("timeline", h.posts.ListTimeline))
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	count, err := h.posts.CountByAuthor(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	core.OK(w, toUserResponse(web.Origin(r, h.baseURL), u, count))
}

type postLister func(ctx context.Context, userID int64, req core.PageRequest) (core.Page[post.Post], error)

func (h *Handler) listPosts(collection string, list postLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.loadUser(w, r)
		if !ok {
			return
		}

		page, err := list(r.Context(), u.ID, core.NewPageRequest(web.PageParam(r), h.perPage))
		if err != nil {
			h.fail(w, r, err)
			return
		}

		origin := web.Origin(r, h.baseURL)
		base := fmt.Sprintf("%s/%s/", userURL(origin, u.ID), collection)

		resp := ListResponse[PostResponse]{
			Items: make([]PostResponse, 0, len(page.Items)),
			Count: page.Total,
		}
		for _, p := range page.Items {
			resp.Items = append(resp.Items, toPostResponse(origin, p))
		}
		if page.HasPrev() {
			prev := web.PageURL(base, page.PrevNum())
			resp.Prev = &prev
		}
		if page.HasNext() {
			next := web.PageURL(base, page.NextNum())
			resp.Next = &next
		}

		core.OK(w, resp)
	}
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	id, ok := web.IDParam(r, "id")
	if !ok {
		h.render.Error(w, r, http.StatusNotFound)
		return nil, false
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return u, true
}

// fail answers with the page or JSON body the Accept header asks for, the
// same as every other route.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := core.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.render.ServerError(w, r, err)
		return
	}
	h.render.Error(w, r, status)
}
