package article

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Content formats accepted from the admin editor.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	contentPolicy *bluemonday.Policy
	policyOnce    sync.Once
)

// mdRenderer converts markdown article bodies. Raw HTML inside markdown is
// passed through and then cleaned by the sanitizer.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
		goldmarkHTML.WithUnsafe(),
	),
)

func policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		contentPolicy = bluemonday.UGCPolicy()
		contentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return contentPolicy
}

// PrepareContent converts the editor output into the stored HTML fragment.
// PRE: format is FormatHTML, FormatMarkdown or empty (treated as HTML)
// POST: Returns sanitized HTML with scripts, handlers and javascript: URLs removed
func PrepareContent(content, format string) (string, error) {
	switch format {
	case "", FormatHTML:
	case FormatMarkdown:
		html, err := RenderMarkdown(content)
		if err != nil {
			return "", err
		}
		content = html
	default:
		return "", ErrInvalidFormat
	}
	return policy().Sanitize(content), nil
}

// RenderMarkdown converts markdown to an HTML fragment without sanitizing.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
