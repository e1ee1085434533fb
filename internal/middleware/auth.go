// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/role"
)

const (
	PrincipalKey  contextKey = "principal"
	SessionCookie            = "session"
)

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*role.Principal, error)
}

// ErrorResponder writes a negotiated error page or body for status.
type ErrorResponder interface {
	Error(w http.ResponseWriter, r *http.Request, status int)
}

// Session loads the caller from the session cookie. Requests without a
// valid session continue as anonymous and a stale cookie is cleared.
func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				if !isSessionError(err) {
					slog.Error("resolve session", "error", err,
						"request_id", GetRequestID(r.Context()))
				}
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func isSessionError(err error) bool {
	return errors.Is(err, core.ErrTokenExpired) ||
		errors.Is(err, core.ErrTokenInvalid) ||
		errors.Is(err, core.ErrTokenRevoked) ||
		errors.Is(err, core.ErrNotFound)
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func WithPrincipal(ctx context.Context, p *role.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// CurrentUser returns the caller, or nil when the request is anonymous.
func CurrentUser(ctx context.Context) *role.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*role.Principal); ok {
		return p
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if p := CurrentUser(ctx); p != nil {
		return strconv.FormatInt(p.UserID, 10)
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return CurrentUser(ctx) != nil
}

// Gate holds the route guards. Every guard only inspects the caller.
type Gate struct {
	responder       ErrorResponder
	loginPath       string
	unconfirmedPath string
}

func NewGate(responder ErrorResponder, loginPath, unconfirmedPath string) *Gate {
	return &Gate{
		responder:       responder,
		loginPath:       loginPath,
		unconfirmedPath: unconfirmedPath,
	}
}

// RequireLogin redirects anonymous callers to the login page, carrying the
// requested URL in ?next=.
func (g *Gate) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			http.Redirect(w, r, g.LoginURL(r), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) LoginURL(r *http.Request) string {
	return g.loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}

// RequirePermission rejects callers lacking perm with 403. Anonymous
// callers hold no permissions.
func (g *Gate) RequirePermission(perm role.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CurrentUser(r.Context()).Can(perm) {
				g.responder.Error(w, r, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin sends anonymous callers to login and other non-admins to 403.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireLogin(g.RequirePermission(role.Admin)(next))
}

// RequireConfirmed diverts signed-in but unconfirmed accounts to the
// unconfirmed page. Paths under any of exempt pass through.
func (g *Gate) RequireConfirmed(exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := CurrentUser(r.Context())
			if p == nil || p.Confirmed || hasAnyPrefix(r.URL.Path, exempt) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, g.unconfirmedPath, http.StatusFound)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
