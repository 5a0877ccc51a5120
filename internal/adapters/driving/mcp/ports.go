package mcp

import (
	"github.com/rag4u/ingest/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Search provides full-text retrieval.
	Search driving.SearchService

	// Ingest runs the ingestion pipeline. Optional.
	Ingest driving.Ingestor

	// DefaultDir is ingested when the ingest tool is called without a directory.
	DefaultDir string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
