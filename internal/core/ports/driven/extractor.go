package driven

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// Extractor pulls text out of a single file format.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extract reads the file at path and returns its text segments.
	// A non-nil error means no usable text was produced.
	Extract(ctx context.Context, path string) ([]domain.Segment, error)
}

// ExtractorRegistry selects an Extractor for a file.
// Rules are evaluated in registration order; the first match wins.
type ExtractorRegistry interface {
	// Extract dispatches path to the matching extractor.
	// Failure is reported in the result, never as an error.
	Extract(ctx context.Context, path, mediaType string) domain.Extraction

	// Supports reports whether any rule matches the media type and path.
	Supports(path, mediaType string) bool
}

// TypeDetector sniffs the canonical media type of a file.
type TypeDetector interface {
	Detect(path string) string
}
