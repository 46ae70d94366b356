package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestDiskStore_PutServeDelete covers the full object lifecycle.
func TestDiskStore_PutServeDelete(t *testing.T) {
	ctx := context.Background()
	d, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := d.Put(ctx, "articles/1_a.png", "image/png", strings.NewReader("png-bytes"), 9)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/articles/1_a.png" {
		t.Errorf("url = %q", url)
	}
	if !d.Owns(url) || d.Owns("https://cdn.example.com/articles/1_a.png") {
		t.Error("Owns mismatch")
	}
	key, ok := d.KeyFromURL(url)
	if !ok || key != "articles/1_a.png" {
		t.Errorf("KeyFromURL = %q, %v", key, ok)
	}

	mux := http.NewServeMux()
	mux.Handle(d.URLPrefix(), d.Handler())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || string(body) != "png-bytes" {
		t.Errorf("serve: %d %q", rec.Code, body)
	}

	if err := d.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Delete(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

// TestDiskStore_RejectsTraversal keeps writes inside the upload dir.
func TestDiskStore_RejectsTraversal(t *testing.T) {
	d, err := NewDiskStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, key := range []string{"../escape.png", "", "/abs.png"} {
		if _, err := d.Put(context.Background(), key, "", strings.NewReader("x"), 1); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
}
