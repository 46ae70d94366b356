package profilelog

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/profilelog"
)

func TestSQLiteStore_ListByUser(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	s := NewSQLiteStore(db)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, user := range []string{"u1", "u2", "u1", "u1"} {
		snap := domain.Snapshot{
			ID:        fmt.Sprintf("s%d", i),
			UserID:    user,
			WeightKg:  70 - float64(i),
			HeightCm:  175,
			BMI:       22.9,
			Category:  "Normal",
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := s.ListByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 3 || all[0].ID != "s3" || all[2].ID != "s0" {
		t.Errorf("unexpected order/size: %+v", all)
	}

	limited, _ := s.ListByUser(ctx, "u1", 2)
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
	if none, _ := s.ListByUser(ctx, "nobody", 0); len(none) != 0 {
		t.Errorf("expected no rows, got %d", len(none))
	}
}
