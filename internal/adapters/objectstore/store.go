// Package objectstore uploads and deletes article cover images.
package objectstore

import (
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Store is an object store that serves uploaded objects at public URLs.
type Store interface {
	// Put uploads body under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
	// Owns reports whether url points into this store.
	Owns(url string) bool
	// KeyFromURL returns the object key for a URL this store produced.
	KeyFromURL(url string) (string, bool)
}

// ArticlePrefix namespaces article cover images.
const ArticlePrefix = "articles"

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SanitizeFilename reduces a client filename to a safe single path segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = unsafeFilename.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "image"
	}
	return name
}

// ArticleImageKey namespaces an upload by time and original filename:
// articles/<unix-millis>_<filename>.
func ArticleImageKey(now time.Time, filename string) string {
	return ArticlePrefix + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + SanitizeFilename(filename)
}

// keyFromPrefixedURL strips base from u and unescapes the remainder.
func keyFromPrefixedURL(base, u string) (string, bool) {
	if base == "" || !strings.HasPrefix(u, base) {
		return "", false
	}
	rest := strings.TrimPrefix(u, base)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
