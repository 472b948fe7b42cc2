package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore implements DocumentStore on Redis. Documents are JSON
// values keyed doc:<collection>:<id>; records are durable (no TTL).
type RedisDocumentStore struct {
	redis *RedisStore
}

// NewRedisDocumentStore creates a Redis-backed document store
func NewRedisDocumentStore(redis *RedisStore) *RedisDocumentStore {
	return &RedisDocumentStore{redis: redis}
}

// Name identifies the backing technology
func (s *RedisDocumentStore) Name() string {
	return "redis"
}

func docKey(collection, id string) string {
	return fmt.Sprintf("doc:%s:%s", collection, id)
}

func collectionPattern(collection string) string {
	return fmt.Sprintf("doc:%s:*", collection)
}

// FindOne returns the first document matching the filter. Filters carrying
// an "_id" are a single GET; other filters scan the collection.
func (s *RedisDocumentStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	if id, ok := filter["_id"]; ok {
		doc, err := s.getDoc(ctx, docKey(collection, id))
		if err != nil {
			return nil, err
		}
		if !matches(doc, filter) {
			return nil, ErrNotFound
		}
		return doc, nil
	}

	// Secondary-field lookup: walk the collection. Collections here are
	// small (one document per subject or startup).
	iter := s.redis.Client().Scan(ctx, 0, collectionPattern(collection), 100).Iterator()
	for iter.Next(ctx) {
		doc, err := s.getDoc(ctx, iter.Val())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if matches(doc, filter) {
			return doc, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", collection, err)
	}

	return nil, ErrNotFound
}

// Upsert merges fields into the stored document, creating it when absent
func (s *RedisDocumentStore) Upsert(ctx context.Context, collection string, filter Filter, fields Document) error {
	id, ok := filter["_id"]
	if !ok {
		return errors.New("upsert filter must carry an _id")
	}

	key := docKey(collection, id)
	existing, err := s.getDoc(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	merged := make(Document, len(existing)+len(fields))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.redis.Client().Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

// DeleteOne removes the document with the filter's _id
func (s *RedisDocumentStore) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	id, ok := filter["_id"]
	if !ok {
		return errors.New("delete filter must carry an _id")
	}

	deleted, err := s.redis.Client().Del(ctx, docKey(collection, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents in a collection
func (s *RedisDocumentStore) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	iter := s.redis.Client().Scan(ctx, 0, collectionPattern(collection), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return count, nil
}

func (s *RedisDocumentStore) getDoc(ctx context.Context, key string) (Document, error) {
	data, err := s.redis.Client().Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", key, err)
	}
	return doc, nil
}

// matches reports whether every filter field (other than _id) equals the
// document's string form of that field.
func matches(doc Document, filter Filter) bool {
	for k, want := range filter {
		if k == "_id" {
			continue
		}
		got, ok := doc[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
