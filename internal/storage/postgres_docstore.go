package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PostgresDocumentStore implements DocumentStore on the legacy store's
// generic documents table: one JSONB document per (collection, doc_id).
type PostgresDocumentStore struct {
	db *PostgresDB
}

// NewPostgresDocumentStore creates a Postgres-backed document store
func NewPostgresDocumentStore(db *PostgresDB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

// Name identifies the backing technology
func (s *PostgresDocumentStore) Name() string {
	return "postgres"
}

// FindOne returns the first document matching the filter
func (s *PostgresDocumentStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	var (
		query string
		args  []interface{}
	)

	if id, ok := filter["_id"]; ok {
		query = `SELECT doc FROM documents WHERE collection = $1 AND doc_id = $2`
		args = []interface{}{collection, id}
	} else {
		conditions := []string{"collection = $1"}
		args = []interface{}{collection}
		for field, value := range filter {
			args = append(args, field, value)
			conditions = append(conditions, fmt.Sprintf("doc->>$%d = $%d", len(args)-1, len(args)))
		}
		query = fmt.Sprintf("SELECT doc FROM documents WHERE %s LIMIT 1", strings.Join(conditions, " AND "))
	}

	var data []byte
	err := s.db.Pool().QueryRow(ctx, query, args...).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Upsert merges fields into the stored document, creating it when absent
func (s *PostgresDocumentStore) Upsert(ctx context.Context, collection string, filter Filter, fields Document) error {
	id, ok := filter["_id"]
	if !ok {
		return errors.New("upsert filter must carry an _id")
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, doc_id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, doc_id)
		DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = now()
	`

	if _, err := s.db.Pool().Exec(ctx, query, collection, id, data); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// DeleteOne removes the document with the filter's _id
func (s *PostgresDocumentStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	id, ok := filter["_id"]
	if !ok {
		return errors.New("delete filter must carry an _id")
	}

	result, err := s.db.Pool().Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND doc_id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents in a collection
func (s *PostgresDocumentStore) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := s.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
