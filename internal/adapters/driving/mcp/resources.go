package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for rag4u resources.
	uriScheme = "rag4u://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{recordId}",
		Name:        "record",
		Description: "A stored chunk with its metadata",
		MIMEType:    "application/json",
	}, s.handleRecordResource)
}

// handleRecordResource returns one record looked up by ID.
func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractRecordID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Search.Search(ctx, id, 1)
	if err != nil {
		return nil, fmt.Errorf("looking up record: %w", err)
	}
	if len(results) == 0 || results[0].Record.ID != id {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(results[0].Record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling record: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRecordID extracts the ID from a URI like rag4u://records/{recordId}.
func extractRecordID(uri string) string {
	const prefix = uriScheme + "records/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
