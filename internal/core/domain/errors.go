package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles a media type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrUnreadable indicates a file could not be opened or read.
	// The file is skipped; the run continues.
	ErrUnreadable = errors.New("file unreadable")

	// ErrCorruptFile indicates a file's container or encoding is malformed.
	ErrCorruptFile = errors.New("corrupt file")

	// ErrEmptyExtraction indicates an extractor produced no text.
	ErrEmptyExtraction = errors.New("no text extracted")

	// Storage Errors.

	// ErrInvalidRecord indicates a record violates the record contract.
	// Only that record fails.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStoreUnavailable indicates the document store cannot be reached.
	// Fatal to the current run.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
