package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDiskURLPrefix is where DiskStore objects are served from.
const DefaultDiskURLPrefix = "/uploads/"

// DiskStore implements Store on the local filesystem for development.
type DiskStore struct {
	dir    string
	prefix string
}

// NewDiskStore stores objects under dir and serves them at urlPrefix.
// PRE: dir is writable
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: upload dir is required", ErrInvalidConfig)
	}
	if urlPrefix == "" {
		urlPrefix = DefaultDiskURLPrefix
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &DiskStore{dir: dir, prefix: urlPrefix}, nil
}

// path resolves key inside dir, rejecting traversal.
func (d *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(d.dir, clean), nil
}

// Put writes body to dir/key.
func (d *DiskStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	p, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return d.prefix + key, nil
}

// Delete removes dir/key.
func (d *DiskStore) Delete(_ context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// Owns reports whether url is served by this store.
func (d *DiskStore) Owns(url string) bool {
	return strings.HasPrefix(url, d.prefix)
}

// KeyFromURL returns the object key encoded in url.
func (d *DiskStore) KeyFromURL(url string) (string, bool) {
	return keyFromPrefixedURL(d.prefix, url)
}

// URLPrefix returns the path objects are served from.
func (d *DiskStore) URLPrefix() string {
	return d.prefix
}

// Handler serves stored objects; mount it at URLPrefix.
func (d *DiskStore) Handler() http.Handler {
	return http.StripPrefix(d.prefix, http.FileServer(http.Dir(d.dir)))
}
