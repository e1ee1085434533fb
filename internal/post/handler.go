// AngelaMos | 2026
// handler.go

package post

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/comment"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/web"
)

const (
	showFollowedCookie = "show_followed"
	showFollowedMaxAge = 30 * 24 * time.Hour
)

type PostForm struct {
	Body string `form:"body" validate:"required"`
}

type CommentForm struct {
	Body string `form:"body" validate:"required"`
}

type Handler struct {
	service         *Service
	comments        *comment.Service
	render          *web.Renderer
	gate            *middleware.Gate
	postsPerPage    int
	commentsPerPage int
}

func NewHandler(
	service *Service,
	comments *comment.Service,
	render *web.Renderer,
	gate *middleware.Gate,
	postsPerPage, commentsPerPage int,
) *Handler {
	return &Handler{
		service:         service,
		comments:        comments,
		render:          render,
		gate:            gate,
		postsPerPage:    postsPerPage,
		commentsPerPage: commentsPerPage,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.With(h.gate.RequirePermission(role.Write)).Post("/", h.Index)
	r.Get("/about", h.About)
	r.Get("/post/{id}", h.Show)
	r.With(h.gate.RequirePermission(role.Comment)).Post("/post/{id}", h.Show)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireLogin)
		r.Get("/all", h.showFollowed(false))
		r.Get("/followed", h.showFollowed(true))
		r.Get("/edit/{id}", h.Edit)
		r.Post("/edit/{id}", h.Edit)
	})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := middleware.CurrentUser(ctx)

	var form PostForm
	var errs web.FieldErrors
	if r.Method == http.MethodPost {
		var err error
		if errs, err = web.Bind(w, r, &form); err != nil {
			h.render.Error(w, r, http.StatusBadRequest)
			return
		}
		if !errs.Any() {
			_, err := h.service.Create(ctx, current, form.Body)
			switch {
			case err == nil:
				web.Redirect(w, r, "/")
				return
			case errors.Is(err, core.ErrInvalidInput):
				errs.Add("body", "This field is required.")
			default:
				h.fail(w, r, err)
				return
			}
		}
	}

	showFollowed := false
	if current != nil {
		if c, err := r.Cookie(showFollowedCookie); err == nil && c.Value != "" {
			showFollowed = true
		}
	}

	req := core.NewPageRequest(web.PageParam(r), h.postsPerPage)

	var posts core.Page[Post]
	var err error
	if showFollowed {
		posts, err = h.service.ListTimeline(ctx, current.UserID, req)
	} else {
		posts, err = h.service.List(ctx, req)
	}
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "index", web.Data{
		"Form":         form,
		"Errors":       errs,
		"ShowFollowed": showFollowed,
		"Posts":        posts,
	})
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "about", nil)
}

func (h *Handler) showFollowed(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := ""
		if on {
			value = "1"
		}
		http.SetCookie(w, &http.Cookie{
			Name:     showFollowedCookie,
			Value:    value,
			Path:     "/",
			MaxAge:   int(showFollowedMaxAge / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		web.Redirect(w, r, "/")
	}
}

// Show renders a post with its comments and accepts new comments.
// ?page=-1 opens the last page of comments.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := web.IDParam(r, "id")
	if !ok {
		h.render.Error(w, r, http.StatusNotFound)
		return
	}

	post, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var form CommentForm
	var errs web.FieldErrors
	if r.Method == http.MethodPost {
		if errs, err = web.Bind(w, r, &form); err != nil {
			h.render.Error(w, r, http.StatusBadRequest)
			return
		}
		if !errs.Any() {
			_, err := h.comments.Create(ctx, middleware.CurrentUser(ctx), post.ID, form.Body)
			switch {
			case err == nil:
				web.Flash(w, "Your comment has been published.")
				web.Redirect(w, r, fmt.Sprintf("/post/%d?page=%d#comments", post.ID, core.LastPage))
				return
			case errors.Is(err, core.ErrInvalidInput):
				errs.Add("body", "This field is required.")
			default:
				h.fail(w, r, err)
				return
			}
		}
	}

	comments, err := h.comments.ListForPost(ctx, post.ID, core.NewPageRequest(web.PageParam(r), h.commentsPerPage))
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "post", web.Data{
		"Post":     post,
		"Posts":    []Post{*post},
		"Form":     form,
		"Errors":   errs,
		"Comments": comments,
	})
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := middleware.CurrentUser(ctx)

	id, ok := web.IDParam(r, "id")
	if !ok {
		h.render.Error(w, r, http.StatusNotFound)
		return
	}

	post, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !post.CanEdit(current) {
		h.render.Error(w, r, http.StatusForbidden)
		return
	}

	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "edit_post", web.Data{
			"Post": post,
			"Form": PostForm{Body: post.Body},
		})
		return
	}

	var form PostForm
	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}

	if !errs.Any() {
		_, err := h.service.Edit(ctx, current, id, form.Body)
		switch {
		case err == nil:
			web.Flash(w, "The post has been updated.")
			web.Redirect(w, r, fmt.Sprintf("/post/%d", id))
			return
		case errors.Is(err, core.ErrInvalidInput):
			errs.Add("body", "This field is required.")
		default:
			h.fail(w, r, err)
			return
		}
	}

	h.render.Render(w, r, http.StatusOK, "edit_post", web.Data{
		"Post":   post,
		"Form":   form,
		"Errors": errs,
	})
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
