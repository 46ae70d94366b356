package newsletter_test

import (
	"strings"
	"testing"

	"dietwithdee/internal/domain/newsletter"
)

// TestRenderArticleEmail_NoImage omits the image block entirely.
func TestRenderArticleEmail_NoImage(t *testing.T) {
	html := newsletter.RenderArticleEmail("Title", "", "id123", "")
	if strings.Contains(html, "<img") {
		t.Error("expected no <img> tag when image URL is empty")
	}
	if !strings.Contains(html, "Title") {
		t.Error("expected title in output")
	}
}

// TestRenderArticleEmail_WithImage embeds the exact URL and the CTA link.
func TestRenderArticleEmail_WithImage(t *testing.T) {
	html := newsletter.RenderArticleEmail("Title", "http://x/y.png", "id123", "")
	if !strings.Contains(html, `<img src="http://x/y.png"`) {
		t.Errorf("expected image URL inside <img src>, got:\n%s", html)
	}
	if !strings.Contains(html, `href="https://dietwithdee.org/blog/id123"`) {
		t.Error("expected call-to-action link containing the article id")
	}
}

// TestRenderArticleEmail_SiteURL uses the configured base URL.
func TestRenderArticleEmail_SiteURL(t *testing.T) {
	html := newsletter.RenderArticleEmail("Title", "", "a1", "http://localhost:8080/")
	if !strings.Contains(html, `href="http://localhost:8080/blog/a1"`) {
		t.Error("expected CTA built from the site URL")
	}
}

// TestRenderArticleEmail_Deterministic renders identical output for identical input.
func TestRenderArticleEmail_Deterministic(t *testing.T) {
	a := newsletter.RenderArticleEmail("T", "http://x/y.png", "1", "")
	b := newsletter.RenderArticleEmail("T", "http://x/y.png", "1", "")
	if a != b {
		t.Error("render is not deterministic")
	}
}

// TestRenderArticleEmail_TitleVerbatim keeps the title unescaped.
func TestRenderArticleEmail_TitleVerbatim(t *testing.T) {
	html := newsletter.RenderArticleEmail("Salt & Sugar", "", "1", "")
	if !strings.Contains(html, "Salt & Sugar") {
		t.Error("expected title inserted verbatim")
	}
}
