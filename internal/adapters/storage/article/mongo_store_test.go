package article

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/adapters/storage"
)

// TestMongoStore runs against a live server when MONGODB_URL is set.
func TestMongoStore(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}
	ctx := context.Background()
	db, err := storage.ConnectMongo(ctx, storage.MongoOptions{
		URL:           url,
		Database:      "dietwithdee_test_" + uuid.NewString()[:8],
		RetryAttempts: 1,
		RetryInterval: time.Second,
	})
	if err != nil {
		t.Fatalf("ConnectMongo: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	s := NewMongoStore(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	runStoreContract(t, s)
}
