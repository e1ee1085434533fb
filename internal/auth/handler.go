// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/web"
)

const (
	msgInvalidLogin = "Invalid email or password."
	msgEmailTaken   = "Email already registered."
	msgUserTaken    = "Username already in use."
)

type HandlerConfig struct {
	PasswordMinLength int
	BaseURL           string
	SecureCookies     bool
}

type Handler struct {
	service *Service
	render  *web.Renderer
	gate    *middleware.Gate
	cfg     HandlerConfig
}

func NewHandler(service *Service, render *web.Renderer, gate *middleware.Gate, cfg HandlerConfig) *Handler {
	return &Handler{
		service: service,
		render:  render,
		gate:    gate,
		cfg:     cfg,
	}
}

// RegisterRoutes mounts the account pages under /auth. postLimit guards
// the credential-taking posts.
func (h *Handler) RegisterRoutes(r chi.Router, postLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(postLimit)
			r.Get("/login", h.Login)
			r.Post("/login", h.Login)
			r.Get("/register", h.Register)
			r.Post("/register", h.Register)
			r.Get("/reset", h.ResetRequest)
			r.Post("/reset", h.ResetRequest)
			r.Get("/reset/{token}", h.Reset)
			r.Post("/reset/{token}", h.Reset)
		})

		r.Get("/logout", h.Logout)
		r.Get("/unconfirmed", h.Unconfirmed)

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireLogin)
			r.Get("/confirm", h.ResendConfirmation)
			r.Get("/confirm/{token}", h.Confirm)
			r.Get("/change-password", h.ChangePassword)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/change_email", h.ChangeEmailRequest)
			r.Post("/change_email", h.ChangeEmailRequest)
			r.Get("/change_email/{token}", h.ChangeEmail)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	var form LoginForm

	data := web.Data{"Next": next, "Form": form}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/login", data)
		return
	}

	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	data["Form"] = form
	if errs.Any() {
		data["Errors"] = errs
		h.render.Render(w, r, http.StatusOK, "auth/login", data)
		return
	}

	sess, err := h.service.Login(r.Context(), form.Email, form.Password, form.RememberMe)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			data["Flash"] = msgInvalidLogin
			h.render.Render(w, r, http.StatusOK, "auth/login", data)
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, sess)
	web.Redirect(w, r, web.SafeNext(next, "/"))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.CurrentUser(r.Context())); err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	middleware.ClearSessionCookie(w)
	web.Flash(w, "You have been logged out.")
	web.Redirect(w, r, "/")
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var form RegisterForm
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/register", web.Data{"Form": form})
		return
	}

	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	h.checkPasswordLength(errs, form.Password)

	if !errs.Any() {
		user, regErr := h.service.Register(r.Context(), RegisterInput{
			Email:    form.Email,
			Username: form.Username,
			Password: form.Password,
		}, web.Origin(r, h.cfg.BaseURL))

		switch {
		case regErr == nil:
			if user.Confirmed {
				web.Flash(w, "You can now login.")
			} else {
				web.Flash(w, "A confirmation email has been sent to you by email.")
			}
			web.Redirect(w, r, "/auth/login")
			return
		case errors.Is(regErr, core.ErrEmailTaken):
			errs.Add("email", msgEmailTaken)
		case errors.Is(regErr, core.ErrUsernameTaken):
			errs.Add("username", msgUserTaken)
		default:
			h.render.ServerError(w, r, regErr)
			return
		}
	}

	h.render.Render(w, r, http.StatusOK, "auth/register", web.Data{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) Unconfirmed(w http.ResponseWriter, r *http.Request) {
	p := middleware.CurrentUser(r.Context())
	if p == nil || p.Confirmed {
		web.Redirect(w, r, "/")
		return
	}
	h.render.Render(w, r, http.StatusOK, "auth/unconfirmed", nil)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	p := middleware.CurrentUser(r.Context())
	if p.Confirmed {
		web.Redirect(w, r, "/")
		return
	}

	ok, err := h.service.Confirm(r.Context(), p, chi.URLParam(r, "token"))
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	if ok {
		web.Flash(w, "You have confirmed your account. Thanks!")
	} else {
		web.Flash(w, "The confirmation link is invalid or has expired.")
	}
	web.Redirect(w, r, "/")
}

func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	p := middleware.CurrentUser(r.Context())
	if p.Confirmed {
		web.Redirect(w, r, "/")
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), p, web.Origin(r, h.cfg.BaseURL)); err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	web.Flash(w, "A new confirmation email has been sent to you by email.")
	web.Redirect(w, r, "/")
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/change_password", nil)
		return
	}

	var form ChangePasswordForm
	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	h.checkPasswordLength(errs, form.Password)

	data := web.Data{"Errors": errs}
	if errs.Any() {
		h.render.Render(w, r, http.StatusOK, "auth/change_password", data)
		return
	}

	p := middleware.CurrentUser(r.Context())
	sess, err := h.service.ChangePassword(r.Context(), p, form.OldPassword, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			data["Flash"] = "Invalid password."
			h.render.Render(w, r, http.StatusOK, "auth/change_password", data)
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	h.setSessionCookie(w, sess)
	web.Flash(w, "Your password has been updated.")
	web.Redirect(w, r, "/")
}

func (h *Handler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context()) {
		web.Redirect(w, r, "/")
		return
	}

	var form ResetRequestForm
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/reset_request", web.Data{"Form": form})
		return
	}

	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	if errs.Any() {
		h.render.Render(w, r, http.StatusOK, "auth/reset_request", web.Data{
			"Form":   form,
			"Errors": errs,
		})
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), form.Email, web.Origin(r, h.cfg.BaseURL)); err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	web.Flash(w, "An email with instructions to reset your password has been sent to you.")
	web.Redirect(w, r, "/auth/login")
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context()) {
		web.Redirect(w, r, "/")
		return
	}

	token := chi.URLParam(r, "token")
	data := web.Data{"Token": token}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/reset", data)
		return
	}

	var form ResetForm
	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}
	h.checkPasswordLength(errs, form.Password)
	if errs.Any() {
		data["Errors"] = errs
		h.render.Render(w, r, http.StatusOK, "auth/reset", data)
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, form.Password); err != nil {
		if errors.Is(err, ErrInvalidLink) {
			web.Redirect(w, r, "/")
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	web.Flash(w, "Your password has been updated.")
	web.Redirect(w, r, "/auth/login")
}

func (h *Handler) ChangeEmailRequest(w http.ResponseWriter, r *http.Request) {
	var form ChangeEmailForm
	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, "auth/change_email", web.Data{"Form": form})
		return
	}

	errs, err := web.Bind(w, r, &form)
	if err != nil {
		h.render.Error(w, r, http.StatusBadRequest)
		return
	}

	data := web.Data{"Form": form, "Errors": errs}
	if errs.Any() {
		h.render.Render(w, r, http.StatusOK, "auth/change_email", data)
		return
	}

	err = h.service.RequestEmailChange(
		r.Context(),
		middleware.CurrentUser(r.Context()),
		form.Email,
		form.Password,
		web.Origin(r, h.cfg.BaseURL),
	)
	switch {
	case err == nil:
		web.Flash(w, "An email with instructions to confirm your new email address has been sent to you.")
		web.Redirect(w, r, "/")
	case errors.Is(err, ErrInvalidCredentials):
		data["Flash"] = msgInvalidLogin
		h.render.Render(w, r, http.StatusOK, "auth/change_email", data)
	case errors.Is(err, core.ErrEmailTaken):
		errs.Add("email", msgEmailTaken)
		h.render.Render(w, r, http.StatusOK, "auth/change_email", data)
	default:
		h.render.ServerError(w, r, err)
	}
}

func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	err := h.service.ChangeEmail(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "token"))
	switch {
	case err == nil:
		web.Flash(w, "Your email address has been updated.")
	case errors.Is(err, ErrInvalidLink):
		web.Flash(w, "Invalid request.")
	default:
		h.render.ServerError(w, r, err)
		return
	}
	web.Redirect(w, r, "/")
}

func (h *Handler) checkPasswordLength(errs web.FieldErrors, password string) {
	if password != "" && utf8.RuneCountInString(password) < h.cfg.PasswordMinLength {
		errs.Add("password", fmt.Sprintf(
			"Field must be at least %d characters long.", h.cfg.PasswordMinLength))
	}
}

// setSessionCookie writes the session token. Remembered sessions persist
// across browser restarts; others end with the browser session.
func (h *Handler) setSessionCookie(w http.ResponseWriter, sess *Session) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Remember {
		cookie.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, cookie)
}
