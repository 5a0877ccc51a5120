package cli

import (
	"context"
	"fmt"

	"github.com/rag4u/ingest/internal/adapters/driven/storage/factory"
	"github.com/rag4u/ingest/internal/connectors"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/services"
	"github.com/rag4u/ingest/internal/detector"
	"github.com/rag4u/ingest/internal/extractors"
	"github.com/rag4u/ingest/internal/nlp"
	"github.com/rag4u/ingest/internal/postprocessors"
)

// Construction hooks, replaced in tests.
var (
	openStore     = factory.Open
	loadAnnotator = func() (driven.Annotator, error) { return nlp.New() }
)

// app is the service wiring for one command invocation.
// The store is opened once and shared by every service.
type app struct {
	settings *domain.Settings
	store    driven.DocumentStore
}

// newApp validates settings and connects to the document store.
func newApp(ctx context.Context) (*app, error) {
	if settingsService == nil {
		return nil, fmt.Errorf("settings service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := openStore(ctx, settings.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", settings.Store.Backend, err)
	}
	return &app{settings: settings, store: store}, nil
}

// Close releases the store connection.
func (a *app) Close() error {
	return a.store.Close()
}

// ingestor builds the ingestion pipeline. Loading the annotator model is
// the slow part, so it only happens for commands that ingest.
func (a *app) ingestor() (*services.IngestService, error) {
	annotator, err := loadAnnotator()
	if err != nil {
		return nil, fmt.Errorf("loading annotator: %w", err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry, annotator)
	pipeline, err := postprocessors.Build(registry, a.settings.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	return services.NewIngestService(
		a.store,
		detector.New(),
		extractors.Default(),
		pipeline,
		connectors.Filesystem,
		a.settings.Store.Collection,
		a.settings.Ingest,
	), nil
}

func (a *app) searcher() *services.SearchService {
	return services.NewSearchService(a.store, a.settings.Store.Collection)
}
