// Package factory opens the document store selected in settings.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rag4u/ingest/internal/adapters/driven/storage/memory"
	"github.com/rag4u/ingest/internal/adapters/driven/storage/mongo"
	"github.com/rag4u/ingest/internal/adapters/driven/storage/sqlite"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// connectTimeout bounds connecting to and pinging a remote store.
const connectTimeout = 10 * time.Second

// Open creates the configured document store and validates connectivity.
// The caller owns the store and must Close it.
func Open(ctx context.Context, settings domain.StoreSettings) (driven.DocumentStore, error) {
	switch settings.Backend {
	case domain.StoreBackendMongo:
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		store, err := mongo.NewStore(cctx, settings.URI, settings.Database)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store %s: %w. Check MONGODB_URI or 'store.uri'",
				settings.URI, err)
		}
		return store, nil

	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil

	case domain.StoreBackendMemory:
		return memory.NewDocumentStore(), nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
