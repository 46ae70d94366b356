package article

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "dietwithdee/internal/domain/article"
)

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	t.Run("list is newest first regardless of insertion order", func(t *testing.T) {
		offsets := []int{2, 0, 3, 1}
		for _, h := range offsets {
			_, err := s.Create(ctx, domain.Article{
				Title:     "Article",
				Content:   "<p>x</p>",
				CreatedAt: base.Add(time.Duration(h) * time.Hour),
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) < len(offsets) {
			t.Fatalf("List returned %d articles, want >= %d", len(list), len(offsets))
		}
		for i := 1; i < len(list); i++ {
			if list[i].CreatedAt.After(list[i-1].CreatedAt) {
				t.Errorf("list[%d] (%v) is newer than list[%d] (%v)", i, list[i].CreatedAt, i-1, list[i-1].CreatedAt)
			}
		}
	})

	t.Run("create assigns id and get round-trips", func(t *testing.T) {
		id, err := s.Create(ctx, domain.Article{
			Title:      "Fibre",
			Content:    "<p>beans</p>",
			CoverImage: "https://cdn.example.com/a.png",
			CreatedAt:  base,
		})
		if err != nil || id == "" {
			t.Fatalf("Create: %q %v", id, err)
		}
		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Title != "Fibre" || got.CoverImage != "https://cdn.example.com/a.png" {
			t.Errorf("got %+v", got)
		}
		if !got.CreatedAt.Equal(base) || !got.UpdatedAt.Equal(base) {
			t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, base)
		}
	})

	t.Run("update merges fields and keeps created_at", func(t *testing.T) {
		id, _ := s.Create(ctx, domain.Article{Title: "Old", Content: "<p>old</p>", CoverImage: "x", CreatedAt: base})
		later := base.Add(48 * time.Hour)
		if err := s.Update(ctx, id, Patch{Title: "New", Content: "<p>new</p>", UpdatedAt: later}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Title != "New" || got.Content != "<p>new</p>" || got.CoverImage != "" {
			t.Errorf("got %+v", got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt changed to %v", got.CreatedAt)
		}
		if !got.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
		}
	})

	t.Run("missing id maps to ErrNotFound", func(t *testing.T) {
		if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetByID: %v", err)
		}
		if err := s.Update(ctx, "missing", Patch{Title: "x", UpdatedAt: base}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Update: %v", err)
		}
		if err := s.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Delete: %v", err)
		}
	})

	t.Run("delete removes the record", func(t *testing.T) {
		id, _ := s.Create(ctx, domain.Article{Title: "Gone", Content: "<p>x</p>", CreatedAt: base})
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("after delete: %v", err)
		}
	})
}
