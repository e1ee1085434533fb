// AngelaMos | 2026
// handler.go

package follow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/user"
	"github.com/carterperez-dev/webuzz/internal/web"
)

type UserLookup interface {
	ByUsername(ctx context.Context, username string) (*user.User, error)
}

type Handler struct {
	service *Service
	users   UserLookup
	render  *web.Renderer
	gate    *middleware.Gate
	perPage int
}

func NewHandler(service *Service, users UserLookup, render *web.Renderer, gate *middleware.Gate, perPage int) *Handler {
	return &Handler{service: service, users: users, render: render, gate: gate, perPage: perPage}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireLogin)
		r.Use(h.gate.RequirePermission(role.Follow))
		r.Get("/follow/{username}", h.Follow)
		r.Get("/unfollow/{username}", h.Unfollow)
	})

	r.Get("/followers/{username}", h.listing("Followers of", "/followers/", h.service.Followers))
	r.Get("/followed_by/{username}", h.listing("Followed by", "/followed_by/", h.service.Followed))
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.target(w, r)
	if !ok {
		return
	}

	added, err := h.service.Follow(r.Context(), middleware.CurrentUser(r.Context()), target.ID)
	switch {
	case errors.Is(err, ErrSelfFollow):
		web.Flash(w, "You cannot follow yourself.")
	case err != nil:
		h.fail(w, r, err)
		return
	case !added:
		web.Flash(w, "You are already following this user.")
	default:
		web.Flash(w, fmt.Sprintf("You are now following %s.", target.Username))
	}
	web.Redirect(w, r, "/user/"+target.Username)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.target(w, r)
	if !ok {
		return
	}

	removed, err := h.service.Unfollow(r.Context(), middleware.CurrentUser(r.Context()), target.ID)
	switch {
	case errors.Is(err, ErrSelfFollow):
		web.Flash(w, "You cannot unfollow yourself.")
	case err != nil:
		h.fail(w, r, err)
		return
	case !removed:
		web.Flash(w, "You are not following this user.")
	default:
		web.Flash(w, fmt.Sprintf("You are not following %s anymore.", target.Username))
	}
	web.Redirect(w, r, "/user/"+target.Username)
}

type lister func(ctx context.Context, userID int64, req core.PageRequest) (core.Page[Entry], error)

func (h *Handler) listing(title, base string, list lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, ok := h.target(w, r)
		if !ok {
			return
		}

		page, err := list(r.Context(), target.ID, core.NewPageRequest(web.PageParam(r), h.perPage))
		if err != nil {
			h.render.ServerError(w, r, err)
			return
		}

		h.render.Render(w, r, http.StatusOK, "followers", web.Data{
			"Title":   title,
			"User":    target,
			"Follows": page,
			"Base":    base + target.Username,
		})
	}
}

// target loads the user named in the URL. Unknown names flash and go home.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	target, err := h.users.ByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			web.Flash(w, "Invalid user.")
			web.Redirect(w, r, "/")
			return nil, false
		}
		h.render.ServerError(w, r, err)
		return nil, false
	}
	return target, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		h.render.Error(w, r, http.StatusNotFound)
	case errors.Is(err, core.ErrForbidden):
		h.render.Error(w, r, http.StatusForbidden)
	default:
		h.render.ServerError(w, r, err)
	}
}
