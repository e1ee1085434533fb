// AngelaMos | 2026
// markup.go

package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	postTags = []string{
		"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i",
		"li", "ol", "pre", "strong", "ul", "h1", "h2", "h3", "p",
	}
	commentTags = []string{
		"a", "abbr", "acronym", "b", "code", "em", "i", "strong",
	}

	markdown      = goldmark.New(goldmark.WithExtensions(extension.Linkify))
	postPolicy    = newPolicy(postTags)
	commentPolicy = newPolicy(commentTags)
	stripPolicy   = bluemonday.StrictPolicy()
)

func newPolicy(tags []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}

// RenderPostHTML converts a markdown post body into sanitized HTML.
func RenderPostHTML(body string) (string, error) {
	return render(body, postPolicy)
}

// RenderCommentHTML is RenderPostHTML with the narrower inline-only tag set.
func RenderCommentHTML(body string) (string, error) {
	return render(body, commentPolicy)
}

func render(body string, policy *bluemonday.Policy) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}

// IsBlankMarkup reports whether nothing readable is left once all markup is removed.
func IsBlankMarkup(body string) bool {
	return strings.TrimSpace(stripPolicy.Sanitize(body)) == ""
}
