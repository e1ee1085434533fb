// AngelaMos | 2026
// markup_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPostHTMLStripsScripts(t *testing.T) {
	html, err := RenderPostHTML("**hello** <script>alert(1)</script>")
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>hello</strong>")
	assert.NotContains(t, html, "<script")
}

func TestRenderPostHTMLKeepsBlockTags(t *testing.T) {
	html, err := RenderPostHTML("# Title\n\n- one\n- two")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<li>one</li>")
}

func TestRenderCommentHTMLDropsBlockTags(t *testing.T) {
	html, err := RenderCommentHTML("# Title")
	require.NoError(t, err)

	assert.NotContains(t, html, "<h1>")
	assert.Contains(t, html, "Title")
}

func TestRenderLinksAreNoFollow(t *testing.T) {
	html, err := RenderCommentHTML("see https://example.com")
	require.NoError(t, err)

	assert.Contains(t, html, `href="https://example.com"`)
	assert.Contains(t, html, `rel="nofollow"`)
}

func TestIsBlankMarkup(t *testing.T) {
	assert.True(t, IsBlankMarkup(""))
	assert.True(t, IsBlankMarkup("   \n\t"))
	assert.True(t, IsBlankMarkup("<b></b> <i> </i>"))
	assert.True(t, IsBlankMarkup("<script>alert(1)</script>"))
	assert.False(t, IsBlankMarkup("<b>hi</b>"))
	assert.False(t, IsBlankMarkup("plain"))
}
