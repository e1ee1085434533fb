// AngelaMos | 2026
// render.go

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/role"
)

//go:embed templates
var templateFS embed.FS

// Data is the context handed to a page template.
type Data map[string]any

type Renderer struct {
	pages   map[string]*template.Template
	appName string
}

func NewRenderer(appName string) (*Renderer, error) {
	pageFiles, err := pagePaths()
	if err != nil {
		return nil, err
	}

	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		files := append([]string{"templates/layout.html"}, partials...)
		files = append(files, file)

		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/pages/"), ".html")
		pages[name] = t
	}

	return &Renderer{pages: pages, appName: appName}, nil
}

func pagePaths() ([]string, error) {
	var out []string
	err := fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".html" {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk pages: %w", err)
	}
	return out, nil
}

// Render executes page name inside the layout and writes it with status.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data Data) {
	t, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = Data{}
	}
	data["AppName"] = rd.appName
	data["Path"] = r.URL.Path
	data["Now"] = time.Now()
	if p := middleware.CurrentUser(r.Context()); p != nil {
		data["CurrentUser"] = p
	}

	flashes := takeFlashes(w, r)
	if msg, ok := data["Flash"].(string); ok && msg != "" {
		flashes = append(flashes, msg)
	}
	data["Flashes"] = flashes

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		core.SetSpanError(r.Context(), err)
		slog.Error("render template", "name", name, "error", err,
			"request_id", middleware.GetRequestID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}

// Error answers with JSON for clients that accept JSON but not HTML and with
// the error page otherwise.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	if WantsJSON(r) {
		core.JSON(w, status, core.ErrorResponse{Error: core.KindForStatus(status)})
		return
	}

	rd.Render(w, r, status, "error", Data{
		"Status":  status,
		"Title":   http.StatusText(status),
		"Message": errorMessages[status],
	})
}

// ServerError logs err and answers 500.
func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	core.SetSpanError(r.Context(), err)
	slog.Error("request failed", "error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()))
	rd.Error(w, r, http.StatusInternalServerError)
}

var errorMessages = map[int]string{
	http.StatusForbidden:           "You are not allowed to do that.",
	http.StatusNotFound:            "The page you asked for does not exist.",
	http.StatusTooManyRequests:     "Slow down and try again shortly.",
	http.StatusInternalServerError: "Something went wrong on our side.",
}

var funcs = template.FuncMap{
	"html": func(s string) template.HTML {
		return template.HTML(s) //nolint:gosec // bodies are sanitized before storage
	},
	"date": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006")
	},
	"datetime": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006 15:04 UTC")
	},
	"iso": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
	"gravatar": core.GravatarURL,
	"can": func(p *role.Principal, name string) bool {
		perm, ok := permissionNames[name]
		return ok && p.Can(perm)
	},
	"pageURL": PageURL,
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
	"styles": func() []string { return core.GravatarStyles },
}

var permissionNames = map[string]role.Permission{
	"FOLLOW":   role.Follow,
	"COMMENT":  role.Comment,
	"WRITE":    role.Write,
	"MODERATE": role.Moderate,
	"ADMIN":    role.Admin,
}

// PageURL appends page=n to base, keeping any query base already has.
func PageURL(base string, n int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, n)
}
