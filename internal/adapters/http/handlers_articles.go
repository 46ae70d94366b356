package web

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/domain/article"
	"dietwithdee/internal/domain/audit"
	"dietwithdee/internal/domain/newsletter"
)

// MaxUploadBytes caps the multipart body of an article form.
const MaxUploadBytes = 10 << 20

var errNotAnImage = errors.New("cover image must be an image file")

func articleDeps() orchestrators.ArticleDeps {
	return orchestrators.ArticleDeps{
		Articles: stores.ArticleStore,
		Images:   services.Images,
		Now:      timeNow,
	}
}

func publishDeps() orchestrators.PublishDeps {
	return orchestrators.PublishDeps{
		ArticleDeps: articleDeps(),
		Newsletter:  services.Newsletter,
	}
}

type articleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Format   string `json:"format"`
	ImageURL string `json:"imageUrl"`
}

func (req articleRequest) input() orchestrators.ArticleInput {
	in := orchestrators.ArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Format:  req.Format,
		Image:   article.NoImage(),
	}
	if strings.TrimSpace(req.ImageURL) != "" {
		in.Image = article.ExistingURL(strings.TrimSpace(req.ImageURL))
	}
	return in
}

// readArticleInput parses either a multipart form (with an optional "image"
// file) or a JSON body. The returned cleanup closes any uploaded file.
func readArticleInput(w http.ResponseWriter, r *http.Request) (orchestrators.ArticleInput, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req articleRequest
		if err := strictDecode(r, &req); err != nil {
			return orchestrators.ArticleInput{}, noop, errors.New("invalid request body")
		}
		return req.input(), noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return orchestrators.ArticleInput{}, noop, errors.New("invalid form submission")
	}
	req := articleRequest{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Format:   r.FormValue("format"),
		ImageURL: r.FormValue("imageUrl"),
	}
	in := req.input()

	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, noop, nil
	}
	if err != nil {
		return orchestrators.ArticleInput{}, noop, errors.New("invalid image upload")
	}
	contentType := hdr.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return orchestrators.ArticleInput{}, noop, errNotAnImage
	}
	in.Image = article.Upload(article.UploadedFile{
		Filename:    hdr.Filename,
		ContentType: contentType,
		Size:        hdr.Size,
		Body:        file,
	})
	return in, func() { file.Close() }, nil
}

// handleListArticles returns every article, newest first.
func handleListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := orchestrators.ExecuteListArticles(r.Context(), articleDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := orchestrators.ExecuteGetArticle(r.Context(), r.PathValue("id"), articleDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// newsletterBody is the newsletter half of a publish response.
type newsletterBody struct {
	newsletter.DispatchResult
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func newsletterResponse(res newsletter.DispatchResult, err error) newsletterBody {
	if err != nil {
		return newsletterBody{
			DispatchResult: res,
			Message:        "Newsletter could not be sent",
			Error:          err.Error(),
		}
	}
	return newsletterBody{
		DispatchResult: res,
		Success:        res.Success(),
		Message:        res.Message(),
	}
}

// handleAdminArticles handles GET (list) and POST (publish) for
// /api/admin/articles.
func handleAdminArticles(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		handleListArticles(w, r)
	case http.MethodPost:
		in, cleanup, err := readArticleInput(w, r)
		defer cleanup()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := orchestrators.ExecutePublishArticle(r.Context(), in, publishDeps())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		recordAudit(r, audit.ActionArticlePublish, res.Article.ID, res.Article.Title)
		body := map[string]any{
			"success": true,
			"article": res.Article,
		}
		if services.Newsletter != nil {
			body["newsletter"] = newsletterResponse(res.Newsletter, res.NewsletterErr)
		}
		writeJSON(w, http.StatusCreated, body)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminArticle handles PUT (update) and DELETE for
// /api/admin/articles/{id}.
func handleAdminArticle(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		handleGetArticle(w, r)
	case http.MethodPut:
		in, cleanup, err := readArticleInput(w, r)
		defer cleanup()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := orchestrators.ExecuteUpdateArticle(r.Context(), id, in, articleDeps())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		recordAudit(r, audit.ActionArticleUpdate, id, a.Title)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "article": a})
	case http.MethodDelete:
		if err := orchestrators.ExecuteDeleteArticle(r.Context(), id, articleDeps()); err != nil {
			writeDomainError(w, err)
			return
		}
		recordAudit(r, audit.ActionArticleDelete, id, "")
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleResendNewsletter re-runs the dispatch for an existing article. The
// idempotency marker still applies, so a completed send reports already_sent.
func handleResendNewsletter(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if services.Newsletter == nil {
		writeError(w, http.StatusServiceUnavailable, "newsletter is not configured")
		return
	}
	id := r.PathValue("id")
	res, err := orchestrators.ExecuteResendNewsletter(r.Context(), id, publishDeps())
	if errors.Is(err, article.ErrNotFound) {
		writeDomainError(w, err)
		return
	}
	slog.Info("newsletter_resend_requested", "article_id", id, "account_id", sess.AccountID, "status", res.Status)
	recordAudit(r, audit.ActionNewsletterResend, id, string(res.Status))
	writeJSON(w, http.StatusOK, newsletterResponse(res, err))
}
