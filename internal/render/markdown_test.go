package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML_Markdown(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	html := r.HTML("Some **bold** and ~~struck~~ text")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<del>struck</del>")
}

func TestHTML_StripsScripts(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	html := r.HTML(`hello <script>alert("x")</script> [link](javascript:alert(1))`)
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
}

func TestHTML_LinksAreNofollow(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	html := r.HTML("see https://example.com/docs")
	assert.Contains(t, html, `href="https://example.com/docs"`)
	assert.Contains(t, html, "nofollow")
	assert.Contains(t, html, `target="_blank"`)
}

func TestHTML_Cached(t *testing.T) {
	r, err := New(1)
	require.NoError(t, err)

	first := r.HTML("cached *text*")
	assert.Equal(t, 1, r.cache.Len())
	assert.Equal(t, first, r.HTML("cached *text*"))

	r.HTML("other")
	assert.Equal(t, 1, r.cache.Len())
	assert.True(t, strings.HasPrefix(first, "<p>"))
}
