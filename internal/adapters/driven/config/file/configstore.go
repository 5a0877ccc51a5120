package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"

	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix prefixes environment overrides: store.uri -> RAG4U_STORE_URI.
const EnvPrefix = "RAG4U_"

// envAliases are the variable names the Python-era deployments used.
var envAliases = map[string]string{
	"store.uri":      "MONGODB_URI",
	"store.database": "MONGODB_DB_NAME",
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Environment variables override file values on read and are never saved.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
	lookup   func(string) (string, bool)
}

// Option configures a ConfigStore.
type Option func(*ConfigStore)

// WithFile uses an explicit configuration file instead of <dir>/config.toml.
func WithFile(path string) Option {
	return func(s *ConfigStore) {
		if path != "" {
			s.filePath = path
		}
	}
}

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *ConfigStore) {
		if fn != nil {
			s.lookup = fn
		}
	}
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.rag4u/config.toml.
func NewConfigStore(configDir string, opts ...Option) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".rag4u")
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
		lookup:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return nil, err
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// EnvName returns the override variable for a key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func (s *ConfigStore) env(key string) (string, bool) {
	if v, ok := s.lookup(EnvName(key)); ok {
		return v, true
	}
	if alias, ok := envAliases[key]; ok {
		if v, ok := s.lookup(alias); ok {
			return v, true
		}
	}
	return "", false
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := s.env(key); ok {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	return cast.ToString(val)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	return cast.ToInt(val)
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	return cast.ToBool(val)
}

// GetDuration retrieves a duration. Strings use time.ParseDuration
// syntax; bare numbers are seconds.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	d, err := ToDuration(val)
	if err != nil {
		return 0
	}
	return d
}

// ToDuration converts a config value to a duration. Bare numbers are seconds.
func ToDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
		return time.ParseDuration(v)
	}
	f, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file. A missing file leaves
// the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// nestMap is the inverse of flattenMap, so saved files use tables.
func nestMap(flat map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := result
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = value
	}
	return result
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// LoadEnvFiles loads variables from .env files into the environment.
// Missing files are skipped; variables already set are kept.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}
