package driven

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// PostProcessor is one step of the chunk pipeline.
// PostProcessors are chained in order: chunker, annotate, metadata.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// The chunker receives nil and creates chunks from doc.Segments;
	// later steps receive and return the chunks they enrich.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
