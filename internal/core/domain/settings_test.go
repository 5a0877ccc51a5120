package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBackend_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		backend StoreBackend
		want    bool
	}{
		{"mongo", StoreBackendMongo, true},
		{"sqlite", StoreBackendSQLite, true},
		{"memory", StoreBackendMemory, true},
		{"empty", StoreBackend(""), false},
		{"unknown", StoreBackend("postgres"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backend.IsValid())
		})
	}
}

func TestStoreBackend_Description(t *testing.T) {
	for _, b := range AllStoreBackends() {
		t.Run(b.String(), func(t *testing.T) {
			assert.NotEqual(t, unknownDescription, b.Description())
		})
	}
	assert.Equal(t, unknownDescription, StoreBackend("other").Description())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, StoreBackendMongo, s.Store.Backend)
	assert.Equal(t, "pdfs", s.Store.Collection)
	assert.Positive(t, s.Ingest.Workers)
	assert.Positive(t, s.Ingest.AnnotateWorkers)
	assert.False(t, s.Ingest.SkipUnchanged)
	assert.Equal(t, 2*time.Second, s.Watch.Debounce)
	assert.Equal(t, 1, s.Watch.MaxConcurrentRuns)
	assert.Equal(t, "logs", s.Log.Dir)
	assert.Equal(t, []string{"chunker", "annotate", "metadata"}, s.Pipeline.Processors)
}

func TestPipelineConfig_GetProcessorConfig(t *testing.T) {
	t.Run("nil configs", func(t *testing.T) {
		c := PipelineConfig{}
		assert.Nil(t, c.GetProcessorConfig("chunker"))
	})

	t.Run("defaults", func(t *testing.T) {
		c := DefaultPipelineConfig()
		cfg := c.GetProcessorConfig("chunker")
		require.NotNil(t, cfg)
		assert.Equal(t, 1000, cfg["chunk_size"])
		assert.Equal(t, 200, cfg["overlap"])
		assert.Nil(t, c.GetProcessorConfig("metadata"))
	})
}

func TestPipelineConfig_SetProcessorOption(t *testing.T) {
	var c PipelineConfig
	c.SetProcessorOption("chunker", "chunk_size", 100)
	c.SetProcessorOption("chunker", "overlap", 20)

	cfg := c.GetProcessorConfig("chunker")
	assert.Equal(t, 100, cfg["chunk_size"])
	assert.Equal(t, 20, cfg["overlap"])
}
