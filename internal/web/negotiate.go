// AngelaMos | 2026
// negotiate.go

package web

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// WantsJSON mirrors "accepts JSON and does not accept HTML". A missing
// Accept header accepts everything and therefore gets HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}

	var json, html bool
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v <= 0 {
				continue
			}
		}

		switch mediaType {
		case "*/*", "application/*":
			json, html = true, true
		case "application/json":
			json = true
		case "text/*", "text/html", "application/xhtml+xml":
			html = true
		}
	}

	return json && !html
}
