// Package annotate enriches chunks with tokens, POS tags and named entities.
package annotate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultWorkers bounds concurrent annotation within one document.
const DefaultWorkers = 4

// Processor runs an Annotator over every chunk of a document.
type Processor struct {
	annotator driven.Annotator
	workers   int
}

// Option configures the annotate processor.
type Option func(*Processor)

// WithWorkers sets how many chunks are annotated concurrently.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates an annotate processor backed by annotator.
func New(annotator driven.Annotator, opts ...Option) *Processor {
	p := &Processor{annotator: annotator, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "annotate"
}

// Process annotates all chunks and returns them once every annotation
// has finished. Chunks are modified in place.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if p.annotator == nil {
		return nil, fmt.Errorf("%w: no annotator configured", domain.ErrInvalidInput)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ann := p.annotator.Annotate(chunks[i].Content)
			if chunks[i].Metadata == nil {
				chunks[i].Metadata = make(map[string]any, 3)
			}
			chunks[i].Metadata[domain.MetaTokens] = ann.Tokens
			chunks[i].Metadata[domain.MetaPOSTags] = ann.POSTags
			chunks[i].Metadata[domain.MetaNamedEntities] = ann.NamedEntities
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
