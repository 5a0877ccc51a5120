package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/core/domain"
)

const coll = "pdfs"

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func record(content, key string, page int) domain.Record {
	return domain.Record{
		Content: content,
		Metadata: map[string]any{
			domain.MetaSource:   "/docs/a.pdf",
			domain.MetaPage:     page,
			domain.MetaFileHash: key,
			domain.MetaTokens:   []string{"a", "b"},
			domain.MetaPOSTags:  []domain.POSTag{{Token: "a", Tag: "DT"}, {Token: "b", Tag: "NN"}},
		},
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	require.NoError(t, store.Close())

	// reopening skips applied migrations
	store, err = NewStore(dir)
	require.NoError(t, err)
	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, store.Close())
}

func TestStore_Upsert_InsertAndReplace(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "h-0", record("first version", "h-0", 0)))

	got, err := store.Query(ctx, coll, map[string]any{domain.KeyField: "h-0"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	id := got[0].ID
	assert.Len(t, id, 24)
	assert.Equal(t, "first version", got[0].Content)
	assert.Equal(t, int64(0), got[0].Metadata[domain.MetaPage])
	assert.Equal(t, []any{"a", "b"}, got[0].Metadata[domain.MetaTokens])

	replacement := domain.Record{Content: "second version", Metadata: map[string]any{domain.MetaPage: 3}}
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "h-0", replacement))

	got, err = store.Query(ctx, coll, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "second version", got[0].Content)
	assert.Equal(t, "h-0", got[0].FileHash())
	_, hasSource := got[0].Metadata[domain.MetaSource]
	assert.False(t, hasSource, "replace must not merge")
}

func TestStore_Upsert_Errors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, coll, domain.KeyField, "k", domain.Record{Content: "", Metadata: map[string]any{}})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	err = store.Upsert(ctx, `pdfs"; DROP TABLE x; --`, domain.KeyField, "k", record("x", "k", 0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := record("x", "k", 0)
	bad.Metadata[domain.MetaTokens] = []string{"only-one"}
	err = store.Upsert(ctx, coll, domain.KeyField, "k", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestStore_Upsert_EmptyKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := domain.Record{Content: "keyless", Metadata: map[string]any{}}
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "", rec))
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "", rec))

	got, err := store.Query(ctx, coll, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].FileHash(), got[1].FileHash())
}

func TestStore_ReservedCollections(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"collections", "schema_migrations", "Collections", "sqlite_master", "pdfs_fts"} {
		t.Run(name, func(t *testing.T) {
			err := store.Upsert(ctx, name, domain.KeyField, "k", record("x", "k", 0))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			_, err = store.Query(ctx, name, nil, 0)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			assert.ErrorIs(t, store.Drop(ctx, name), domain.ErrInvalidInput)
		})
	}

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_Query(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		key := fmt.Sprintf("h-%d", i)
		rec := record(fmt.Sprintf("chunk %d", i), key, i%3)
		rec.Metadata["scanned"] = i == 0
		require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, key, rec))
	}

	all, err := store.Query(ctx, coll, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "chunk 0", all[0].Content)

	tests := []struct {
		name   string
		filter map[string]any
		limit  int
		want   int
	}{
		{"limit", nil, 4, 4},
		{"content", map[string]any{"content": "chunk 5"}, 0, 1},
		{"metadata int", map[string]any{"metadata.page": 2}, 0, 2},
		{"metadata string", map[string]any{"metadata.source": "/docs/a.pdf"}, 0, 6},
		{"metadata bool", map[string]any{"metadata.scanned": true}, 0, 1},
		{"and", map[string]any{"metadata.page": 1, "content": "chunk 4"}, 0, 1},
		{"id", map[string]any{"_id": all[3].ID}, 0, 1},
		{"no match", map[string]any{"metadata.source": "/other"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, coll, tt.filter, tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	t.Run("bad key", func(t *testing.T) {
		_, err := store.Query(ctx, coll, map[string]any{"title": "x"}, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = store.Query(ctx, coll, map[string]any{`metadata.a"b`: "x"}, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestStore_FullTextSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.FullTextSearch(ctx, coll, "pumps", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// rows written before the index exists are picked up by the rebuild
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "1",
		record("The maintenance contract covers the pumps.", "1", 0)))
	require.NoError(t, store.EnsureTextIndex(ctx, coll, "content"))
	require.NoError(t, store.EnsureTextIndex(ctx, coll, "content"))

	// rows written afterwards are indexed by triggers
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "2",
		record("Pumps, pumps and more pumps.", "2", 0)))
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "3",
		record("Weather report for Tuesday.", "3", 0)))

	got, err := store.FullTextSearch(ctx, coll, "pumps", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pumps, pumps and more pumps.", got[0].Record.Content)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)

	// replaced content leaves the index in step
	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "2", record("Nothing relevant.", "2", 0)))
	got, err = store.FullTextSearch(ctx, coll, "pumps", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Record.FileHash())

	got, err = store.FullTextSearch(ctx, coll, `weather OR "NEAR(`, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.FullTextSearch(ctx, coll, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, store.EnsureTextIndex(ctx, coll, "metadata.source"), domain.ErrInvalidInput)
}

func TestStore_Drop(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, coll, domain.KeyField, "k", record("x", "k", 0)))
	require.NoError(t, store.EnsureTextIndex(ctx, coll, "content"))

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{coll}, names)

	require.NoError(t, store.Drop(ctx, coll))
	require.NoError(t, store.Drop(ctx, coll))

	names, err = store.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.FullTextSearch(ctx, coll, "x", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.Query(ctx, coll, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("h-%d", i%5)
			assert.NoError(t, store.Upsert(ctx, coll, domain.KeyField, key, record(fmt.Sprintf("v%d", i), key, 0)))
		}(i)
	}
	wg.Wait()

	got, err := store.Query(ctx, coll, nil, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestMatchExpr(t *testing.T) {
	assert.Equal(t, `"pumps" OR "valve"`, matchExpr("Pumps, valve!"))
	assert.Equal(t, "", matchExpr(`"*"`))
}
