package article

import (
	"errors"
	"io"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 200
)

// Domain errors
var (
	ErrNotFound      = errors.New("article not found")
	ErrEmptyTitle    = errors.New("article title cannot be empty")
	ErrTitleTooLong  = errors.New("article title cannot exceed 200 characters")
	ErrEmptyContent  = errors.New("article content cannot be empty")
	ErrInvalidFormat = errors.New("content format must be one of: html, markdown")
	ErrEmptyFilename = errors.New("uploaded image must have a filename")
	ErrEmptyImageURL = errors.New("image URL cannot be empty")
)

// Article is a blog post. Content is an HTML fragment; CoverImage is a URL
// or empty.
type Article struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate checks that the Article has valid data.
// PRE: Article struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if len(a.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrEmptyContent
	}
	if a.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// HasCoverImage returns true if the article references a cover image.
// INVARIANT: Article fields are not mutated
func (a *Article) HasCoverImage() bool {
	return a.CoverImage != ""
}

// ImageKind tags which variant an ImageInput holds.
type ImageKind int

const (
	ImageNone ImageKind = iota
	ImageExistingURL
	ImageUpload
)

// UploadedFile is binary image data supplied by the admin form.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageInput is the cover image supplied with a create or update: nothing,
// an already-hosted URL, or a file that still has to be uploaded.
type ImageInput struct {
	kind ImageKind
	url  string
	file UploadedFile
}

// NoImage returns an input that stores an empty cover image.
func NoImage() ImageInput {
	return ImageInput{kind: ImageNone}
}

// ExistingURL returns an input whose URL is stored verbatim.
func ExistingURL(url string) ImageInput {
	return ImageInput{kind: ImageExistingURL, url: url}
}

// Upload returns an input whose file must be uploaded before use.
func Upload(f UploadedFile) ImageInput {
	return ImageInput{kind: ImageUpload, file: f}
}

// Kind reports which variant the input holds.
func (i ImageInput) Kind() ImageKind { return i.kind }

// URL returns the URL of an ImageExistingURL input.
func (i ImageInput) URL() string { return i.url }

// File returns the file of an ImageUpload input.
func (i ImageInput) File() UploadedFile { return i.file }

// Validate checks the variant carries what it needs.
// PRE: none
// POST: Returns nil if the input can be resolved
func (i ImageInput) Validate() error {
	switch i.kind {
	case ImageExistingURL:
		if strings.TrimSpace(i.url) == "" {
			return ErrEmptyImageURL
		}
	case ImageUpload:
		if strings.TrimSpace(i.file.Filename) == "" {
			return ErrEmptyFilename
		}
		if i.file.Body == nil {
			return errors.New("uploaded image has no data")
		}
	}
	return nil
}
