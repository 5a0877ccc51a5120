package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rag4u/ingest/internal/core/domain"
)

// defaultLimit applies when a search omits its limit.
const defaultLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query, or a record ID"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	RecordID string  `json:"record_id"`
	Source   string  `json:"source"`
	Page     any     `json:"page,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Directory string `json:"directory,omitempty" jsonschema:"directory to ingest (defaults to the configured data directory)"`
}

// IngestOutput summarises an ingestion run.
type IngestOutput struct {
	RunID     string `json:"run_id"`
	Files     int    `json:"files"`
	Processed int    `json:"processed"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
	Records   int    `json:"records"`
	Rejected  int    `json:"rejected"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search over ingested document chunks, most relevant first",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest every document under a directory into the record store",
		}, s.handleIngest)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = toResultOutput(results[i])
	}

	return nil, output, nil
}

func toResultOutput(r domain.ScoredRecord) SearchResultOutput {
	return SearchResultOutput{
		RecordID: r.Record.ID,
		Source:   r.Record.Source(),
		Page:     r.Record.Metadata[domain.MetaPage],
		Score:    r.Score,
		Content:  r.Record.Content,
	}
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, ErrIngestDisabled
	}

	dir := input.Directory
	if dir == "" {
		dir = s.ports.DefaultDir
	}
	if dir == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: directory is required", domain.ErrInvalidInput)
	}

	report, err := s.ports.Ingest.Run(ctx, dir)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		RunID:     report.RunID,
		Files:     report.Files,
		Processed: report.Processed,
		Unchanged: report.Unchanged,
		Failed:    report.Failed,
		Records:   report.Records,
		Rejected:  report.Rejected,
	}, nil
}
