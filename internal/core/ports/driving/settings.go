package driving

import "github.com/rag4u/ingest/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings: defaults, then config file, then environment.
	Get() (*domain.Settings, error)

	// Set validates and persists a single setting by key.
	Set(key, value string) error

	// Keys lists the recognised setting keys.
	Keys() []string

	// Validate checks that current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
