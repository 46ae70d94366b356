package main

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"dietwithdee/internal/adapters/storage"
	articleStore "dietwithdee/internal/adapters/storage/article"
	subscriberStore "dietwithdee/internal/adapters/storage/subscriber"
	"dietwithdee/internal/config"
)

func TestBuildStores_SQLite(t *testing.T) {
	db, err := openSQLite(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("openSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, mdb, err := buildStores(context.Background(), config.Config{StoreBackend: "sqlite"}, db)
	if err != nil || mdb != nil {
		t.Fatalf("buildStores: mdb=%v err=%v", mdb, err)
	}
	if _, ok := s.ArticleStore.(*articleStore.SQLiteStore); !ok {
		t.Errorf("ArticleStore = %T", s.ArticleStore)
	}
	if _, ok := s.SubscriberStore.(*subscriberStore.SQLiteStore); !ok {
		t.Errorf("SubscriberStore = %T", s.SubscriberStore)
	}
	if s.AccountStore == nil || s.AuditStore == nil || s.ProfileLogStore == nil {
		t.Errorf("SQLite-only stores missing: %+v", s)
	}
}

// TestBuildStores_MongoCreatesArticleIndex runs against a live server
// when MONGODB_URL is set.
func TestBuildStores_MongoCreatesArticleIndex(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}
	db, err := openSQLite(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("openSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	cfg := config.Config{
		StoreBackend:  "mongo",
		MongoURL:      url,
		MongoDatabase: "dietwithdee_test_" + uuid.NewString()[:8],
	}
	_, mdb, err := buildStores(ctx, cfg, storage.NewTimedDB(db, nil, 0))
	if err != nil {
		t.Fatalf("buildStores: %v", err)
	}
	t.Cleanup(func() {
		_ = mdb.Drop(context.Background())
		_ = mdb.Client().Disconnect(context.Background())
	})

	specs, err := mdb.Collection(articleStore.CollectionName).Indexes().ListSpecifications(ctx)
	if err != nil {
		t.Fatalf("ListSpecifications: %v", err)
	}
	for _, spec := range specs {
		var keys bson.D
		if err := bson.Unmarshal(spec.KeysDocument, &keys); err == nil && len(keys) == 1 && keys[0].Key == "createdAt" {
			return
		}
	}
	t.Errorf("no createdAt index among %d indexes", len(specs))
}
