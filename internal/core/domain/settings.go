package domain

import "time"

const unknownDescription = "Unknown"

// DefaultCollection is the collection records land in when none is configured.
const DefaultCollection = "pdfs"

// StoreBackend selects the document store adapter.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendMongo persists to a MongoDB collection.
	StoreBackendMongo StoreBackend = "mongo"

	// StoreBackendSQLite persists to a local SQLite database with FTS5.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps records in process memory.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMongo, StoreBackendSQLite, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendMongo:
		return "MongoDB (text index)"
	case StoreBackendSQLite:
		return "SQLite (FTS5, single file)"
	case StoreBackendMemory:
		return "In-memory (not persisted)"
	default:
		return unknownDescription
	}
}

// StoreSettings configures the document store.
type StoreSettings struct {
	Backend    StoreBackend
	URI        string
	Database   string
	Collection string
	// DataDir holds the SQLite database file.
	DataDir string
}

// IngestSettings configures the ingestion orchestrator.
type IngestSettings struct {
	// Workers bounds how many files are processed concurrently.
	Workers int
	// AnnotateWorkers bounds concurrent annotation within one file.
	AnnotateWorkers int
	// SkipUnchanged skips files whose digest is already stored.
	SkipUnchanged bool
}

// WatchSettings configures watch mode.
type WatchSettings struct {
	// Debounce coalesces bursts of create events into one run.
	Debounce time.Duration
	// MinInterval is the minimum time between run starts.
	MinInterval time.Duration
	// MaxConcurrentRuns bounds overlapping runs.
	MaxConcurrentRuns int
}

// LogSettings configures logging output.
type LogSettings struct {
	// Dir receives timestamped log files. Empty disables file logging.
	Dir     string
	Verbose bool
}

// Settings is the complete runtime configuration.
type Settings struct {
	Store    StoreSettings
	Ingest   IngestSettings
	Watch    WatchSettings
	Log      LogSettings
	Pipeline PipelineConfig
}

// DefaultSettings returns settings that work without a config file.
func DefaultSettings() Settings {
	return Settings{
		Store: StoreSettings{
			Backend:    StoreBackendMongo,
			URI:        "mongodb://localhost:27017",
			Database:   "rag4u",
			Collection: DefaultCollection,
		},
		Ingest: IngestSettings{
			Workers:         4,
			AnnotateWorkers: 4,
		},
		Watch: WatchSettings{
			Debounce:          2 * time.Second,
			MinInterval:       5 * time.Second,
			MaxConcurrentRuns: 1,
		},
		Log: LogSettings{
			Dir: "logs",
		},
		Pipeline: DefaultPipelineConfig(),
	}
}

// AllStoreBackends returns all available store backends.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendMongo, StoreBackendSQLite, StoreBackendMemory}
}

// PipelineConfig holds post-processor pipeline configuration.
// Processors run in order; the chunker must come first.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// SetProcessorOption sets a single option for a processor.
func (c *PipelineConfig) SetProcessorOption(name, key string, value any) {
	if c.ProcessorConfigs == nil {
		c.ProcessorConfigs = make(map[string]map[string]any)
	}
	if c.ProcessorConfigs[name] == nil {
		c.ProcessorConfigs[name] = make(map[string]any)
	}
	c.ProcessorConfigs[name][key] = value
}

// DefaultPipelineConfig returns the default pipeline configuration:
// chunk, annotate, then normalise metadata.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "annotate", "metadata"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": 1000,
				"overlap":    200,
			},
			"annotate": {
				"workers": 4,
			},
		},
	}
}
