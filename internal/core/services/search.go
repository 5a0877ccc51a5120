package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/ports/driving"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultSearchLimit is used when the caller passes a non-positive limit.
const DefaultSearchLimit = 10

// recordIDPattern matches store-assigned record IDs.
var recordIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// SearchService runs full-text queries against one collection.
type SearchService struct {
	store      driven.DocumentStore
	collection string
}

// NewSearchService creates a search service over collection.
func NewSearchService(store driven.DocumentStore, collection string) *SearchService {
	return &SearchService{store: store, collection: collection}
}

// Search returns records by descending relevance. When the query looks like
// a record ID and a record with that ID exists, it is returned first.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.ScoredRecord, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.ScoredRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var byID *domain.Record
	if recordIDPattern.MatchString(query) {
		recs, err := s.store.Query(ctx, s.collection, map[string]any{"_id": strings.ToLower(query)}, 1)
		if err != nil {
			return nil, fmt.Errorf("lookup by id: %w", err)
		}
		if len(recs) > 0 {
			byID = &recs[0]
			logger.Debug("Query matched record %s", byID.ID)
		}
	}

	hits, err := s.store.FullTextSearch(ctx, s.collection, query, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) || byID == nil {
			return nil, fmt.Errorf("full-text search: %w", err)
		}
		hits = nil
	}

	results := make([]domain.ScoredRecord, 0, limit)
	if byID != nil {
		score := 1.0
		if len(hits) > 0 && hits[0].Score > score {
			score = hits[0].Score
		}
		results = append(results, domain.ScoredRecord{Record: *byID, Score: score})
	}
	for _, hit := range hits {
		if len(results) >= limit {
			break
		}
		if byID != nil && hit.Record.ID == byID.ID {
			continue
		}
		results = append(results, hit)
	}

	logger.Debug("Search returned %d results", len(results))
	return results, nil
}

// ResetService drops every record in one collection.
type ResetService struct {
	store      driven.DocumentStore
	collection string
	onReset    []func()
}

// Ensure ResetService implements the interface.
var _ driving.Resetter = (*ResetService)(nil)

// NewResetService creates a resetter for collection. Each hook runs after
// a successful reset.
func NewResetService(store driven.DocumentStore, collection string, hooks ...func()) *ResetService {
	return &ResetService{store: store, collection: collection, onReset: hooks}
}

// Reset drops the collection.
func (r *ResetService) Reset(ctx context.Context) error {
	if err := r.store.Drop(ctx, r.collection); err != nil {
		return fmt.Errorf("drop %s: %w", r.collection, err)
	}
	for _, hook := range r.onReset {
		hook()
	}
	logger.Info("Dropped collection %s", r.collection)
	return nil
}
