package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyStoreBackend       = "store.backend"
	KeyStoreURI           = "store.uri"
	KeyStoreDatabase      = "store.database"
	KeyStoreCollection    = "store.collection"
	KeyStoreDataDir       = "store.data_dir"
	KeyIngestWorkers      = "ingest.workers"
	KeyAnnotateWorkers    = "ingest.annotate_workers"
	KeySkipUnchanged      = "ingest.skip_unchanged"
	KeyChunkSize          = "chunker.chunk_size"
	KeyChunkOverlap       = "chunker.overlap"
	KeyWatchDebounce      = "watch.debounce"
	KeyWatchMinInterval   = "watch.min_interval"
	KeyWatchMaxConcurrent = "watch.max_concurrent_runs"
	KeyLogDir             = "log.dir"
	KeyLogVerbose         = "log.verbose"
)

// settingKind drives validation and coercion in Set.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
	kindDuration
)

var settingKinds = map[string]settingKind{
	KeyStoreBackend:       kindString,
	KeyStoreURI:           kindString,
	KeyStoreDatabase:      kindString,
	KeyStoreCollection:    kindString,
	KeyStoreDataDir:       kindString,
	KeyIngestWorkers:      kindInt,
	KeyAnnotateWorkers:    kindInt,
	KeySkipUnchanged:      kindBool,
	KeyChunkSize:          kindInt,
	KeyChunkOverlap:       kindInt,
	KeyWatchDebounce:      kindDuration,
	KeyWatchMinInterval:   kindDuration,
	KeyWatchMaxConcurrent: kindInt,
	KeyLogDir:             kindString,
	KeyLogVerbose:         kindBool,
}

// SettingsService resolves typed settings from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Unset keys keep their defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Store: domain.StoreSettings{
			Backend:    domain.StoreBackend(s.getString(KeyStoreBackend, d.Store.Backend.String())),
			URI:        s.getString(KeyStoreURI, d.Store.URI),
			Database:   s.getString(KeyStoreDatabase, d.Store.Database),
			Collection: s.getString(KeyStoreCollection, d.Store.Collection),
			DataDir:    s.getString(KeyStoreDataDir, d.Store.DataDir),
		},
		Ingest: domain.IngestSettings{
			Workers:         s.getInt(KeyIngestWorkers, d.Ingest.Workers),
			AnnotateWorkers: s.getInt(KeyAnnotateWorkers, d.Ingest.AnnotateWorkers),
			SkipUnchanged:   s.getBool(KeySkipUnchanged, d.Ingest.SkipUnchanged),
		},
		Watch: domain.WatchSettings{
			Debounce:          s.getDuration(KeyWatchDebounce, d.Watch.Debounce),
			MinInterval:       s.getDuration(KeyWatchMinInterval, d.Watch.MinInterval),
			MaxConcurrentRuns: s.getInt(KeyWatchMaxConcurrent, d.Watch.MaxConcurrentRuns),
		},
		Log: domain.LogSettings{
			Dir:     s.getString(KeyLogDir, d.Log.Dir),
			Verbose: s.getBool(KeyLogVerbose, d.Log.Verbose),
		},
		Pipeline: s.GetPipelineConfig(),
	}
	settings.Pipeline.SetProcessorOption("annotate", "workers", settings.Ingest.AnnotateWorkers)

	return settings, nil
}

// Set validates value against the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	var err error
	switch kind {
	case kindInt:
		typed, err = cast.ToIntE(value)
	case kindBool:
		typed, err = cast.ToBoolE(value)
	case kindDuration:
		var d time.Duration
		d, err = time.ParseDuration(value)
		typed = d.String()
	default:
		typed = value
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if key == KeyStoreBackend && !domain.StoreBackend(value).IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, value)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidInput, settings.Store.Backend)
	}
	if settings.Store.Backend == domain.StoreBackendMongo && settings.Store.URI == "" {
		return fmt.Errorf("%w: store backend %q requires store.uri", domain.ErrInvalidInput,
			settings.Store.Backend.Description())
	}
	if settings.Store.Collection == "" {
		return fmt.Errorf("%w: store.collection is empty", domain.ErrInvalidInput)
	}
	if settings.Ingest.Workers < 1 || settings.Ingest.AnnotateWorkers < 1 {
		return fmt.Errorf("%w: worker counts must be positive", domain.ErrInvalidInput)
	}
	if settings.Watch.MaxConcurrentRuns < 1 {
		return fmt.Errorf("%w: watch.max_concurrent_runs must be positive", domain.ErrInvalidInput)
	}
	chunker := settings.Pipeline.GetProcessorConfig("chunker")
	size, overlap := cast.ToInt(chunker["chunk_size"]), cast.ToInt(chunker["overlap"])
	if size < 1 || overlap < 0 {
		return fmt.Errorf("%w: chunk_size must be positive and overlap non-negative", domain.ErrInvalidInput)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// GetPipelineConfig returns the post-processor pipeline configuration,
// with chunker settings read from the chunker.* keys.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	for _, key := range []string{KeyChunkSize, KeyChunkOverlap} {
		if val, exists := s.configStore.Get(key); exists {
			cfg.SetProcessorOption("chunker", key[len("chunker."):], val)
		}
	}
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}
