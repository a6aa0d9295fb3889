// Package markup renders post bodies to HTML.
package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// authors may embed raw HTML in Markdown posts
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render converts content to HTML. Markdown content goes through the
// Markdown renderer; anything else is rich-text HTML and is kept as-is.
func Render(content string, isMD bool) string {
	if !isMD {
		return content
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// goldmark only fails on writer errors, which a bytes.Buffer never returns
		return content
	}
	return buf.String()
}
