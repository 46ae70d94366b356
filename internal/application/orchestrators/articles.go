package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dietwithdee/internal/adapters/objectstore"
	articleStore "dietwithdee/internal/adapters/storage/article"
	"dietwithdee/internal/domain/article"
	"dietwithdee/internal/domain/newsletter"
)

// ArticleStore is the article persistence the use cases depend on.
type ArticleStore interface {
	Create(ctx context.Context, a article.Article) (string, error)
	GetByID(ctx context.Context, id string) (article.Article, error)
	List(ctx context.Context) ([]article.Article, error)
	Update(ctx context.Context, id string, patch articleStore.Patch) error
	Delete(ctx context.Context, id string) error
}

// ErrNoImageStore is returned when an upload arrives but no object store
// is configured.
var ErrNoImageStore = errors.New("image uploads are not configured")

// ArticleDeps holds dependencies for the article use cases.
type ArticleDeps struct {
	Articles ArticleStore
	Images   objectstore.Store // nil disables uploads and image cleanup
	Now      func() time.Time
}

func (d ArticleDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ArticleInput carries editor fields for create and update.
type ArticleInput struct {
	Title   string
	Content string
	Format  string // article.FormatHTML (default) or article.FormatMarkdown
	Image   article.ImageInput
}

func (in ArticleInput) prepare() (article.Article, error) {
	if err := in.Image.Validate(); err != nil {
		return article.Article{}, err
	}
	content, err := article.PrepareContent(in.Content, in.Format)
	if err != nil {
		return article.Article{}, err
	}
	a := article.Article{Title: in.Title, Content: content}
	if err := a.Validate(); err != nil {
		return article.Article{}, err
	}
	return a, nil
}

// resolveImage turns the image variant into a cover image URL.
// POST: Upload -> stored object's public URL; ExistingURL -> verbatim; NoImage -> ""
func resolveImage(ctx context.Context, img article.ImageInput, deps ArticleDeps) (string, error) {
	switch img.Kind() {
	case article.ImageExistingURL:
		return img.URL(), nil
	case article.ImageUpload:
		if deps.Images == nil {
			return "", ErrNoImageStore
		}
		f := img.File()
		key := objectstore.ArticleImageKey(deps.now(), f.Filename)
		url, err := deps.Images.Put(ctx, key, f.ContentType, f.Body, f.Size)
		if err != nil {
			return "", fmt.Errorf("upload cover image: %w", err)
		}
		slog.Info("article_image_uploaded", "key", key, "size", f.Size)
		return url, nil
	default:
		return "", nil
	}
}

// dropImage deletes url from the object store when the store owns it.
// Failures are logged, never returned.
func dropImage(ctx context.Context, deps ArticleDeps, url, articleID, reason string) {
	if url == "" || deps.Images == nil || !deps.Images.Owns(url) {
		return
	}
	key, ok := deps.Images.KeyFromURL(url)
	if !ok {
		return
	}
	if err := deps.Images.Delete(ctx, key); err != nil {
		slog.Warn("article_image_delete_failed", "article_id", articleID, "key", key, "reason", reason, "error", err)
		return
	}
	slog.Info("article_image_deleted", "article_id", articleID, "key", key, "reason", reason)
}

// ExecuteCreateArticle stores a new article.
// PRE: Title and content are non-empty
// POST: Article persisted with CreatedAt == UpdatedAt; returned with its id
func ExecuteCreateArticle(ctx context.Context, input ArticleInput, deps ArticleDeps) (article.Article, error) {
	a, err := input.prepare()
	if err != nil {
		return article.Article{}, err
	}
	cover, err := resolveImage(ctx, input.Image, deps)
	if err != nil {
		return article.Article{}, err
	}
	now := deps.now()
	a.CoverImage = cover
	a.CreatedAt = now
	a.UpdatedAt = now

	id, err := deps.Articles.Create(ctx, a)
	if err != nil {
		if input.Image.Kind() == article.ImageUpload {
			dropImage(ctx, deps, cover, "", "create_failed")
		}
		return article.Article{}, fmt.Errorf("create article: %w", err)
	}
	a.ID = id
	slog.Info("article_created", "article_id", id, "has_cover", a.HasCoverImage())
	return a, nil
}

// ExecuteUpdateArticle overwrites an article's title, content and cover.
// PRE: id refers to an existing article
// POST: UpdatedAt refreshed; CreatedAt unchanged; a replaced cover owned by
// the object store is deleted
func ExecuteUpdateArticle(ctx context.Context, id string, input ArticleInput, deps ArticleDeps) (article.Article, error) {
	existing, err := deps.Articles.GetByID(ctx, id)
	if err != nil {
		return article.Article{}, err
	}
	a, err := input.prepare()
	if err != nil {
		return article.Article{}, err
	}
	cover, err := resolveImage(ctx, input.Image, deps)
	if err != nil {
		return article.Article{}, err
	}

	patch := articleStore.Patch{
		Title:      a.Title,
		Content:    a.Content,
		CoverImage: cover,
		UpdatedAt:  deps.now(),
	}
	if err := deps.Articles.Update(ctx, id, patch); err != nil {
		if input.Image.Kind() == article.ImageUpload {
			dropImage(ctx, deps, cover, id, "update_failed")
		}
		return article.Article{}, fmt.Errorf("update article: %w", err)
	}
	if existing.CoverImage != cover {
		dropImage(ctx, deps, existing.CoverImage, id, "replaced")
	}

	existing.Title = patch.Title
	existing.Content = patch.Content
	existing.CoverImage = patch.CoverImage
	existing.UpdatedAt = patch.UpdatedAt
	slog.Info("article_updated", "article_id", id)
	return existing, nil
}

// ExecuteDeleteArticle removes an article and, when its cover lives in the
// configured object store, the cover image.
// POST: Record deleted. Image deletion failures are logged, never returned
// INVARIANT: a cover URL the store does not own never triggers an image delete
func ExecuteDeleteArticle(ctx context.Context, id string, deps ArticleDeps) error {
	a, err := deps.Articles.GetByID(ctx, id)
	if err != nil {
		return err
	}

	dropImage(ctx, deps, a.CoverImage, id, "article_deleted")

	if err := deps.Articles.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	slog.Info("article_deleted", "article_id", id)
	return nil
}

// ExecuteGetArticle loads one article. Missing ids yield article.ErrNotFound.
func ExecuteGetArticle(ctx context.Context, id string, deps ArticleDeps) (article.Article, error) {
	return deps.Articles.GetByID(ctx, id)
}

// ExecuteListArticles returns all articles, newest first.
func ExecuteListArticles(ctx context.Context, deps ArticleDeps) ([]article.Article, error) {
	list, err := deps.Articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if list == nil {
		list = []article.Article{}
	}
	return list, nil
}

// NewsletterDispatcher announces a newly published article.
type NewsletterDispatcher interface {
	Dispatch(ctx context.Context, input DispatchInput) (newsletter.DispatchResult, error)
}

// PublishDeps holds dependencies for ExecutePublishArticle.
type PublishDeps struct {
	ArticleDeps
	Newsletter NewsletterDispatcher
}

// PublishResult separates the article outcome from the newsletter outcome so
// a newsletter problem never hides a successful publish.
type PublishResult struct {
	Article       article.Article
	Newsletter    newsletter.DispatchResult
	NewsletterErr error
}

// ExecutePublishArticle creates the article, then dispatches the newsletter.
// PRE: input passes article validation
// POST: On error nothing was published; otherwise the article exists whatever the dispatch outcome
func ExecutePublishArticle(ctx context.Context, input ArticleInput, deps PublishDeps) (PublishResult, error) {
	a, err := ExecuteCreateArticle(ctx, input, deps.ArticleDeps)
	if err != nil {
		return PublishResult{}, err
	}
	res := PublishResult{Article: a}
	if deps.Newsletter == nil {
		return res, nil
	}
	res.Newsletter, res.NewsletterErr = deps.Newsletter.Dispatch(ctx, DispatchInput{
		ArticleID: a.ID,
		Title:     a.Title,
		ImageURL:  a.CoverImage,
	})
	if res.NewsletterErr != nil {
		slog.Error("newsletter_dispatch_failed", "article_id", a.ID, "error", res.NewsletterErr)
	}
	return res, nil
}

// ExecuteResendNewsletter dispatches the newsletter for an existing article.
// The idempotency marker still applies.
func ExecuteResendNewsletter(ctx context.Context, id string, deps PublishDeps) (newsletter.DispatchResult, error) {
	a, err := deps.Articles.GetByID(ctx, id)
	if err != nil {
		return newsletter.DispatchResult{}, err
	}
	return deps.Newsletter.Dispatch(ctx, DispatchInput{
		ArticleID: a.ID,
		Title:     a.Title,
		ImageURL:  a.CoverImage,
	})
}
