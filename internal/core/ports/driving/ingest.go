package driving

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// Ingestor runs the ingestion pipeline over a directory tree.
type Ingestor interface {
	// Run processes every file under dir and upserts the resulting records.
	// Per-file failures are counted in the report; only storage
	// connectivity failures are returned as errors.
	Run(ctx context.Context, dir string) (*domain.RunReport, error)
}

// Watcher triggers ingestion runs when files appear in a directory.
type Watcher interface {
	// Watch blocks until ctx is cancelled or the watcher fails.
	Watch(ctx context.Context, dir string) error
}
