package subscriber

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	domain "dietwithdee/internal/domain/subscriber"
)

// CollectionName is the document collection holding subscribers.
const CollectionName = "emails"

type subscriberDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a MongoStore on db's emails collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName)}
}

// Save inserts a subscriber document.
func (s *MongoStore) Save(ctx context.Context, sub domain.Subscriber) (string, error) {
	if sub.ID == "" {
		sub.ID = bson.NewObjectID().Hex()
	}
	doc := subscriberDoc{ID: sub.ID, Email: sub.Email, CreatedAt: sub.CreatedAt.UTC()}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert subscriber: %w", err)
	}
	return sub.ID, nil
}

// List returns all subscriber documents, newest first.
func (s *MongoStore) List(ctx context.Context) ([]domain.Subscriber, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	var docs []subscriberDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subscribers: %w", err)
	}
	out := make([]domain.Subscriber, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Subscriber{ID: d.ID, Email: d.Email, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

// Count returns the number of subscriber documents.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	return int(n), err
}
