// Package metadata coerces chunk metadata into values every document
// store can persist.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// passthrough keys keep their structured form.
var passthrough = map[string]bool{
	domain.MetaTokens:        true,
	domain.MetaPOSTags:       true,
	domain.MetaNamedEntities: true,
}

// Normalize returns a new map in which every value is a string, bool,
// integer or float, except the annotation keys which pass unchanged.
// nil becomes the empty string; anything else is JSON-encoded, or
// formatted with fmt when it cannot be.
func Normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if passthrough[k] {
			out[k] = v
			continue
		}
		out[k] = Scalar(v)
	}
	return out
}

// Scalar coerces a single value.
func Scalar(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// Processor normalises the metadata of every chunk.
type Processor struct{}

// New creates a metadata processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "metadata"
}

// Process replaces each chunk's metadata with its normalised form.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].Metadata = Normalize(chunks[i].Metadata)
	}
	return chunks, nil
}
