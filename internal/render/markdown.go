// Package render converts comment markdown to sanitized HTML.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns markdown into safe HTML and caches results by content hash
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, string]
}

// New creates a renderer with a cache of the given size
func New(cacheSize int) (*Renderer, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		),
		policy: policy,
		cache:  cache,
	}, nil
}

// HTML renders content. Raw HTML in the input is dropped by goldmark and
// whatever remains is passed through the UGC policy.
func (r *Renderer) HTML(content string) string {
	sum := sha256.Sum256([]byte(content))
	key := hex.EncodeToString(sum[:])
	if html, ok := r.cache.Get(key); ok {
		return html
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		// fall back to escaped text
		return r.policy.Sanitize(bluemonday.StrictPolicy().Sanitize(content))
	}
	html := r.policy.Sanitize(buf.String())
	r.cache.Add(key, html)
	return html
}
