package driven

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// DocumentStore is the narrow gateway to the record store.
// One instance is constructed by the caller and shared by all workers;
// implementations must be safe for concurrent use.
type DocumentStore interface {
	// Upsert replaces the record whose keyField equals keyValue, or inserts it.
	// Records are replaced whole, never merged. An empty keyValue is
	// replaced by a freshly generated key.
	Upsert(ctx context.Context, collection, keyField, keyValue string, rec domain.Record) error

	// Query returns up to limit records matching every equality condition in filter.
	// Filter keys are "content", "_id" or "metadata.<key>". limit <= 0 means no limit.
	Query(ctx context.Context, collection string, filter map[string]any, limit int) ([]domain.Record, error)

	// EnsureTextIndex creates a full-text index over field. Idempotent.
	EnsureTextIndex(ctx context.Context, collection, field string) error

	// FullTextSearch returns records ordered by descending relevance.
	FullTextSearch(ctx context.Context, collection, query string, limit int) ([]domain.ScoredRecord, error)

	// Drop removes a collection and everything in it.
	Drop(ctx context.Context, collection string) error

	// Close releases the underlying connection.
	Close() error
}
