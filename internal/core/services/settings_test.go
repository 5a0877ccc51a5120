package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/adapters/driven/storage/memory"
	"github.com/rag4u/ingest/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Store, settings.Store)
	assert.Equal(t, defaults.Ingest, settings.Ingest)
	assert.Equal(t, defaults.Watch, settings.Watch)
	assert.Equal(t, defaults.Log, settings.Log)
	assert.Equal(t, defaults.Pipeline.Processors, settings.Pipeline.Processors)
	assert.Equal(t, defaults.Ingest.AnnotateWorkers, settings.Pipeline.GetProcessorConfig("annotate")["workers"])
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyStoreBackend, "sqlite")
	_ = store.Set(KeyStoreCollection, "docs")
	_ = store.Set(KeyIngestWorkers, int64(8))
	_ = store.Set(KeyAnnotateWorkers, "2")
	_ = store.Set(KeySkipUnchanged, true)
	_ = store.Set(KeyChunkSize, int64(500))
	_ = store.Set(KeyChunkOverlap, int64(50))
	_ = store.Set(KeyWatchDebounce, "250ms")
	_ = store.Set(KeyWatchMaxConcurrent, 3)
	_ = store.Set(KeyLogVerbose, "true")

	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.StoreBackendSQLite, settings.Store.Backend)
	assert.Equal(t, "docs", settings.Store.Collection)
	assert.Equal(t, 8, settings.Ingest.Workers)
	assert.Equal(t, 2, settings.Ingest.AnnotateWorkers)
	assert.True(t, settings.Ingest.SkipUnchanged)
	assert.Equal(t, 250*time.Millisecond, settings.Watch.Debounce)
	assert.Equal(t, 3, settings.Watch.MaxConcurrentRuns)
	assert.True(t, settings.Log.Verbose)

	chunker := settings.Pipeline.GetProcessorConfig("chunker")
	assert.Equal(t, int64(500), chunker["chunk_size"])
	assert.Equal(t, int64(50), chunker["overlap"])
	assert.Equal(t, 2, settings.Pipeline.GetProcessorConfig("annotate")["workers"])
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	tests := []struct {
		key, value string
		want       any
		wantErr    bool
	}{
		{KeyStoreBackend, "memory", "memory", false},
		{KeyStoreBackend, "redis", nil, true},
		{KeyIngestWorkers, "6", 6, false},
		{KeyIngestWorkers, "six", nil, true},
		{KeySkipUnchanged, "true", true, false},
		{KeyWatchDebounce, "1m30s", "1m30s", false},
		{KeyWatchDebounce, "soon", nil, true},
		{"search.mode", "hybrid", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			got, _ := store.Get(tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()
	assert.Contains(t, keys, KeyStoreURI)
	assert.Contains(t, keys, KeyWatchMaxConcurrent)
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{"defaults", nil, false},
		{"bad backend", map[string]any{KeyStoreBackend: "redis"}, true},
		{"negative workers", map[string]any{KeyIngestWorkers: -1}, true},
		{"negative runs", map[string]any{KeyWatchMaxConcurrent: -2}, true},
		{"negative overlap", map[string]any{KeyChunkOverlap: -5}, true},
		{"sqlite", map[string]any{KeyStoreBackend: "sqlite", KeyStoreDataDir: "/tmp/x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				require.NoError(t, store.Set(k, v))
			}
			err := NewSettingsService(store).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, domain.DefaultSettings().Store, service.GetDefaults().Store)
}
