package objectstore

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"my photo (1).jpg", "my_photo__1_.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\dee\salad.jpeg`, "salad.jpeg"},
		{"", "image"},
		{"...", "image"},
		{"bowl@home#1.webp", "bowl_home_1.webp"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestArticleImageKey namespaces by millisecond timestamp.
func TestArticleImageKey(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	if got := ArticleImageKey(now, "Green Smoothie.png"); got != "articles/1767225600123_Green_Smoothie.png" {
		t.Errorf("ArticleImageKey = %q", got)
	}
}

func TestKeyFromPrefixedURL(t *testing.T) {
	base := "https://cdn.example.com/"
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://cdn.example.com/articles/1_a.png", "articles/1_a.png", true},
		{"https://cdn.example.com/articles/1_a%20b.png?v=2", "articles/1_a b.png", true},
		{"https://elsewhere.com/articles/1_a.png", "", false},
		{"https://cdn.example.com/", "", false},
	}
	for _, tt := range tests {
		got, ok := keyFromPrefixedURL(base, tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("keyFromPrefixedURL(%q) = %q, %v", tt.url, got, ok)
		}
	}
}
