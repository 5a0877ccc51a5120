package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in the config file.

Environment variables (RAG4U_<KEY> with dots as underscores, MONGODB_URI,
MONGODB_DB_NAME) take precedence over the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	values := settingValues(settings)
	for _, key := range settingsService.Keys() {
		cmd.Printf("  %-28s %s\n", key, values[key])
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// settingValues renders every setting for display.
func settingValues(s *domain.Settings) map[string]string {
	chunker := s.Pipeline.GetProcessorConfig("chunker")
	return map[string]string{
		services.KeyStoreBackend:       s.Store.Backend.String() + " (" + s.Store.Backend.Description() + ")",
		services.KeyStoreURI:           maskURI(s.Store.URI),
		services.KeyStoreDatabase:      s.Store.Database,
		services.KeyStoreCollection:    s.Store.Collection,
		services.KeyStoreDataDir:       orDefault(s.Store.DataDir, "~/.rag4u/data"),
		services.KeyIngestWorkers:      strconv.Itoa(s.Ingest.Workers),
		services.KeyAnnotateWorkers:    strconv.Itoa(s.Ingest.AnnotateWorkers),
		services.KeySkipUnchanged:      strconv.FormatBool(s.Ingest.SkipUnchanged),
		services.KeyChunkSize:          fmt.Sprint(chunker["chunk_size"]),
		services.KeyChunkOverlap:       fmt.Sprint(chunker["overlap"]),
		services.KeyWatchDebounce:      s.Watch.Debounce.String(),
		services.KeyWatchMinInterval:   s.Watch.MinInterval.String(),
		services.KeyWatchMaxConcurrent: strconv.Itoa(s.Watch.MaxConcurrentRuns),
		services.KeyLogDir:             orDefault(s.Log.Dir, "(disabled)"),
		services.KeyLogVerbose:         strconv.FormatBool(s.Log.Verbose),
	}
}

// maskURI hides the password in a connection string.
func maskURI(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return u.String()
	}
	// url.UserPassword would percent-encode the mask.
	u.User = url.User(u.User.Username())
	prefix := u.Scheme + "://" + u.User.String()
	return prefix + ":****" + strings.TrimPrefix(u.String(), prefix)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
