package newsletter

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

//go:embed templates/article_email.html
var articleEmailTmpl string

// articleEmail is executed with text/template: the title is inserted
// verbatim and is trusted admin input.
var articleEmail = template.Must(template.New("article_email").Parse(articleEmailTmpl))

// DefaultSiteURL is the public site the CTA link points at.
const DefaultSiteURL = "https://dietwithdee.org"

type emailData struct {
	Title    string
	ImageURL string
	ReadMore string
}

// ArticleURL returns the public blog URL of an article.
func ArticleURL(siteURL, articleID string) string {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return strings.TrimRight(siteURL, "/") + "/blog/" + articleID
}

// RenderArticleEmail renders the newsletter HTML body for an article.
// PRE: none
// POST: Output contains an <img> only when imageURL is non-empty and
// always contains a link to ArticleURL(siteURL, articleID)
// INVARIANT: deterministic, no I/O
func RenderArticleEmail(title, imageURL, articleID, siteURL string) string {
	var buf bytes.Buffer
	data := emailData{
		Title:    title,
		ImageURL: imageURL,
		ReadMore: ArticleURL(siteURL, articleID),
	}
	// The template is parsed at init and the data has no fallible fields.
	if err := articleEmail.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}
