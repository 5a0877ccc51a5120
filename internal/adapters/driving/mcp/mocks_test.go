package mcp

import (
	"context"

	"github.com/rag4u/ingest/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.ScoredRecord
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, query string, limit int) ([]domain.ScoredRecord, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.results, m.err
}

// mockIngestor is a mock implementation of driving.Ingestor.
type mockIngestor struct {
	report *domain.RunReport
	err    error
	dir    string
}

func (m *mockIngestor) Run(_ context.Context, dir string) (*domain.RunReport, error) {
	m.dir = dir
	return m.report, m.err
}
