// Package storage provides persistence for wallet records across the
// primary document store and the legacy store.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindOne and DeleteOne when no document matches.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record as stored in a backing store.
type Document map[string]interface{}

// Filter selects documents by exact field match. The "_id" key addresses a
// document by its primary key and is the fast path on every backend.
type Filter map[string]string

// ByID builds a primary-key filter.
func ByID(id string) Filter {
	return Filter{"_id": id}
}

// DocumentStore is the minimal interface both backing technologies satisfy.
// The wallet store and resolver are written against this interface, not
// against a specific product's client API.
type DocumentStore interface {
	// FindOne returns the first document matching the filter, or ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	// Upsert merges fields into the document selected by the filter,
	// creating it when absent. The filter must carry an "_id".
	Upsert(ctx context.Context, collection string, filter Filter, fields Document) error
	// DeleteOne removes the document selected by the filter. Returns
	// ErrNotFound when nothing matched.
	DeleteOne(ctx context.Context, collection string, filter Filter) error
	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int64, error)
	// Name identifies the backing technology for logging.
	Name() string
}
