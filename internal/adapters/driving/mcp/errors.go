// Package mcp provides an MCP (Model Context Protocol) server adapter for rag4u.
// It lets a question-answering front end retrieve ingested chunks and
// trigger ingestion runs.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrIngestDisabled is returned by the ingest tool when no ingestor is wired.
var ErrIngestDisabled = errors.New("mcp: ingestion is not enabled")
