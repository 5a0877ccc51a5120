package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rag4u/ingest/internal/adapters/driven/storage"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

type collection struct {
	records []domain.Record
	indexed map[string]bool
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Full-text scoring is a length-normalised term frequency.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
	closed      bool
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]*collection),
	}
}

func (s *DocumentStore) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{indexed: make(map[string]bool)}
		s.collections[name] = c
	}
	return c
}

func (s *DocumentStore) check(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return fmt.Errorf("%w: store is closed", domain.ErrStoreUnavailable)
	}
	return storage.ValidateCollection(name)
}

// Upsert replaces the record whose keyField equals keyValue, or appends it.
func (s *DocumentStore) Upsert(ctx context.Context, name, keyField, keyValue string, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, name); err != nil {
		return err
	}

	if keyValue == "" {
		keyValue = storage.NewKey()
	}
	rec = storage.Clone(rec)
	if err := storage.SetField(&rec, keyField, keyValue); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	c := s.collection(name)
	for i := range c.records {
		if v, ok := storage.Field(c.records[i], keyField); ok && storage.Equal(v, keyValue) {
			rec.ID = c.records[i].ID
			c.records[i] = rec
			return nil
		}
	}
	if rec.ID == "" {
		rec.ID = storage.NewID()
	}
	c.records = append(c.records, rec)
	return nil
}

// Query returns records matching every condition in filter, in insertion order.
func (s *DocumentStore) Query(ctx context.Context, name string, filter map[string]any, limit int) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, name); err != nil {
		return nil, err
	}

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	var out []domain.Record
	for _, rec := range c.records {
		if !storage.Matches(rec, filter) {
			continue
		}
		out = append(out, storage.Clone(rec))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// EnsureTextIndex marks field as searchable.
func (s *DocumentStore) EnsureTextIndex(ctx context.Context, name, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, name); err != nil {
		return err
	}
	if field != storage.FieldContent {
		return fmt.Errorf("%w: text index on %q is not supported", domain.ErrInvalidInput, field)
	}
	s.collection(name).indexed[field] = true
	return nil
}

// FullTextSearch scores every record containing at least one query term.
func (s *DocumentStore) FullTextSearch(ctx context.Context, name, query string, limit int) ([]domain.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, name); err != nil {
		return nil, err
	}

	c, ok := s.collections[name]
	if !ok || !c.indexed[storage.FieldContent] {
		return nil, fmt.Errorf("%w: no text index on %s", domain.ErrNotFound, name)
	}

	terms := storage.Terms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var out []domain.ScoredRecord
	for _, rec := range c.records {
		if score := termScore(rec.Content, terms); score > 0 {
			out = append(out, domain.ScoredRecord{Record: storage.Clone(rec), Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func termScore(content string, terms []string) float64 {
	words := storage.Terms(content)
	if len(words) == 0 {
		return 0
	}
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	hits := 0
	for _, t := range terms {
		hits += counts[strings.ToLower(t)]
	}
	return float64(hits) / math.Sqrt(float64(len(words)))
}

// Drop removes a collection.
func (s *DocumentStore) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, name); err != nil {
		return err
	}
	delete(s.collections, name)
	return nil
}

// Count returns the number of records in a collection.
func (s *DocumentStore) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.records)
	}
	return 0
}

// Close marks the store closed. Later calls fail with ErrStoreUnavailable.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
