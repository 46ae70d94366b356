package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	domain "dietwithdee/internal/domain/article"
)

// CollectionName is the document collection holding articles.
const CollectionName = "articles"

type articleDoc struct {
	ID         string    `bson:"_id"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	CoverImage string    `bson:"coverImage"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (d articleDoc) toDomain() domain.Article {
	return domain.Article{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		CoverImage: d.CoverImage,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a MongoStore on db's articles collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the createdAt index used by List.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

// Create inserts a document, assigning an ObjectID hex string when a.ID is empty.
func (s *MongoStore) Create(ctx context.Context, a domain.Article) (string, error) {
	if a.ID == "" {
		a.ID = bson.NewObjectID().Hex()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	doc := articleDoc{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		CoverImage: a.CoverImage,
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return a.ID, nil
}

// GetByID loads one document.
// POST: Returns domain.ErrNotFound when the document does not exist
func (s *MongoStore) GetByID(ctx context.Context, id string) (domain.Article, error) {
	var doc articleDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// List returns all documents sorted by createdAt descending.
func (s *MongoStore) List(ctx context.Context) ([]domain.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	var docs []articleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	out := make([]domain.Article, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update applies a $set merge of the patch fields.
func (s *MongoStore) Update(ctx context.Context, id string, patch Patch) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: patch.Title},
		{Key: "content", Value: patch.Content},
		{Key: "coverImage", Value: patch.CoverImage},
		{Key: "updatedAt", Value: patch.UpdatedAt.UTC()},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes one document.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
