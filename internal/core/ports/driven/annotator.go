package driven

import "github.com/rag4u/ingest/internal/core/domain"

// Annotator produces tokens, POS tags and named entities for text.
// Implementations must be safe for concurrent use.
type Annotator interface {
	Annotate(text string) domain.Annotation
}
