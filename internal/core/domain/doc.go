// Package domain defines the core business entities for rag4u ingestion.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: A persisted chunk of text with linguistic metadata
//   - Document: A file processing job (path, media type, digest, segments)
//   - Chunk: A bounded unit of a document on its way to becoming a Record
//   - Segment: A piece of extracted text with its page index
//   - Extraction: The result of running a format extractor
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
