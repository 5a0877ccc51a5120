// Package plaintext reads UTF-8 text files.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extract returns the whole file as one segment, without a leading BOM.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}
	data = bytes.TrimPrefix(data, bom)

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", domain.ErrCorruptFile)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: string(data)}}, nil
}
