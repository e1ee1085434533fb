// AngelaMos | 2026
// handler.go

package comment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/web"
)

type Handler struct {
	service *Service
	render  *web.Renderer
	gate    *middleware.Gate
	perPage int
}

func NewHandler(service *Service, render *web.Renderer, gate *middleware.Gate, perPage int) *Handler {
	return &Handler{service: service, render: render, gate: gate, perPage: perPage}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/moderate", func(r chi.Router) {
		r.Use(h.gate.RequireLogin)
		r.Use(h.gate.RequirePermission(role.Moderate))

		r.Get("/", h.Moderate)
		r.Get("/enable/{id}", h.toggle(false))
		r.Get("/disable/{id}", h.toggle(true))
	})
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	req := core.NewPageRequest(web.PageParam(r), h.perPage)

	comments, err := h.service.Queue(r.Context(), middleware.CurrentUser(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "moderate", web.Data{"Comments": comments})
}

func (h *Handler) toggle(disabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := web.IDParam(r, "id")
		if !ok {
			h.render.Error(w, r, http.StatusNotFound)
			return
		}

		if err := h.service.SetDisabled(r.Context(), middleware.CurrentUser(r.Context()), id, disabled); err != nil {
			h.fail(w, r, err)
			return
		}

		web.Redirect(w, r, "/moderate?page="+strconv.Itoa(web.PageParam(r)))
	}
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
