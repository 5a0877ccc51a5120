package driving

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search runs a full-text query against the configured collection.
	// A query that is a stored record ID returns that record first.
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredRecord, error)
}

// Resetter removes all ingested records.
type Resetter interface {
	Reset(ctx context.Context) error
}
