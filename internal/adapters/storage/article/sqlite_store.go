package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/article"
)

const selectColumns = "SELECT id, title, content, cover_image, created_at, updated_at FROM articles"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new article SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new article row.
// PRE: a has been validated
// POST: Row persisted; returns its id
func (s *SQLiteStore) Create(ctx context.Context, a domain.Article) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO articles (id, title, content, cover_image, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.Title, a.Content, a.CoverImage, storage.FormatTime(a.CreatedAt), storage.FormatTime(a.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return a.ID, nil
}

// GetByID retrieves an Article by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Article, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	a, err := scanArticle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

// List returns all articles ordered by creation time, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var results []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Update overwrites title, content, cover image and updated_at.
// PRE: patch.UpdatedAt is set
// POST: created_at unchanged; domain.ErrNotFound when no row matched
func (s *SQLiteStore) Update(ctx context.Context, id string, patch Patch) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE articles SET title = ?, content = ?, cover_image = ?, updated_at = ? WHERE id = ?",
		patch.Title, patch.Content, patch.CoverImage, storage.FormatTime(patch.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	return requireOneRow(res)
}

// Delete removes an article row.
// POST: domain.ErrNotFound when no row matched
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanArticle extracts an Article from a row scanner function.
func scanArticle(scan func(dest ...any) error) (domain.Article, error) {
	var a domain.Article
	var createdAt, updatedAt string
	if err := scan(&a.ID, &a.Title, &a.Content, &a.CoverImage, &createdAt, &updatedAt); err != nil {
		return domain.Article{}, err
	}
	a.CreatedAt, _ = storage.ParseTime(createdAt)
	a.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return a, nil
}
