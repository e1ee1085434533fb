// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/web"
)

type PostLister interface {
	ListByAuthor(ctx context.Context, authorID int64, req core.PageRequest) (core.Page[post.Post], error)
}

type FollowStats interface {
	IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
}

type Handler struct {
	service      *Service
	posts        PostLister
	follows      FollowStats
	render       *web.Renderer
	gate         *middleware.Gate
	postsPerPage int
}

func NewHandler(
	service *Service,
	posts PostLister,
	follows FollowStats,
	render *web.Renderer,
	gate *middleware.Gate,
	postsPerPage int,
) *Handler {
	return &Handler{
		service:      service,
		posts:        posts,
		follows:      follows,
		render:       render,
		gate:         gate,
		postsPerPage: postsPerPage,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/user/{username}", h.Profile)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireLogin)
		r.Get("/edit-profile", h.EditProfile)
		r.Post("/edit-profile", h.EditProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAdmin)
		r.Get("/edit-profile/{id}", h.EditProfileAdmin)
		r.Post("/edit-profile/{id}", h.EditProfileAdmin)
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.service.ByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	posts, err := h.posts.ListByAuthor(ctx, u.ID, core.NewPageRequest(web.PageParam(r), h.postsPerPage))
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	followers, err := h.follows.CountFollowers(ctx, u.ID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}
	following, err := h.follows.CountFollowing(ctx, u.ID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	current := middleware.CurrentUser(ctx)
	isSelf := current != nil && current.UserID == u.ID

	var isFollowing, followsYou bool
	if current != nil && !isSelf {
		if isFollowing, err = h.follows.IsFollowing(ctx, current.UserID, u.ID); err != nil {
			h.render.ServerError(w, r, err)
			return
		}
		if followsYou, err = h.follows.IsFollowing(ctx, u.ID, current.UserID); err != nil {
			h.render.ServerError(w, r, err)
			return
		}
	}

	h.render.Render(w, r, http.StatusOK, "user", web.Data{
		"User":        u,
		"PostCount":   posts.Total,
		"Posts":       posts,
		"IsSelf":      isSelf,
		"IsFollowing": isFollowing,
		"FollowsYou":  followsYou,
		"Followers":   followers,
		"Following":   following,
	})
}

func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := middleware.CurrentUser(ctx)

	if r.Method != http.MethodPost {
		u, err := h.service.Get(ctx, current.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render.Render(w, r, http.StatusOK, "edit_profile", web.Data{"Form": profileFormFrom(u)})
		return
	}

	var form ProfileForm
	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	if errs.Any() {
		h.render.Render(w, r, http.StatusOK, "edit_profile", web.Data{"Form": form, "Errors": errs})
		return
	}

	u, err := h.service.UpdateProfile(ctx, current, form.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	web.Flash(w, "Your profile has been updated.")
	web.Redirect(w, r, "/user/"+u.Username)
}

func (h *Handler) EditProfileAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := web.IDParam(r, "id")
	if !ok {
		h.render.Error(w, r, http.StatusNotFound)
		return
	}

	u, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	roles, err := h.service.Roles(ctx)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	data := web.Data{"User": u, "Roles": roles, "Form": adminFormFrom(u)}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "edit_profile_admin", data)
		return
	}

	var form AdminProfileForm
	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	data["Form"] = form
	data["Errors"] = errs

	if !errs.Any() {
		updated, upErr := h.service.UpdateAccount(ctx, middleware.CurrentUser(ctx), id, form.input())
		switch {
		case upErr == nil:
			web.Flash(w, "The profile has been updated.")
			web.Redirect(w, r, "/user/"+updated.Username)
			return
		case errors.Is(upErr, core.ErrEmailTaken):
			errs.Add("email", "Email already registered.")
		case errors.Is(upErr, core.ErrUsernameTaken):
			errs.Add("username", "Username already in use.")
		case errors.Is(upErr, core.ErrInvalidInput):
			errs.Add("role", "Not a valid choice.")
		default:
			h.fail(w, r, upErr)
			return
		}
	}

	h.render.Render(w, r, http.StatusOK, "edit_profile_admin", data)
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
