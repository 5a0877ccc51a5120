// Package cli provides the rag4u command line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/adapters/driven/config/file"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/core/ports/driving"
	"github.com/rag4u/ingest/internal/core/services"
	"github.com/rag4u/ingest/internal/logger"
)

// annotationLogFile marks commands that also log to a timestamped file.
const annotationLogFile = "logfile"

var (
	version = "dev"

	configPath string
	envFiles   []string
	timeout    time.Duration
	verbose    bool

	settingsService driving.SettingsService
)

// openConfig builds the configuration store. Replaced in tests.
var openConfig = func(path string) (driven.ConfigStore, error) {
	if path != "" {
		return file.NewConfigStore("", file.WithFile(path))
	}
	return file.NewConfigStore("")
}

var rootCmd = &cobra.Command{
	Use:   "rag4u",
	Short: "Document ingestion for retrieval-augmented QA",
	Long: `rag4u turns a folder of documents (PDF, Word, Excel, PowerPoint, text)
into annotated, searchable chunks in a document store.

Configuration is read from ~/.rag4u/config.toml (or --config), .env files
and RAG4U_* / MONGODB_URI / MONGODB_DB_NAME environment variables.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.rag4u/config.toml)")
	flags.StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load")
	flags.DurationVar(&timeout, "timeout", 0, "abort the command after this long (0 = no limit)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	version = v
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and prepares logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := file.LoadEnvFiles(envFiles...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}

	store, err := openConfig(configPath)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(store)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbose || settings.Log.Verbose)
	if cmd.Annotations[annotationLogFile] == "true" && settings.Log.Dir != "" {
		path, err := logger.SetLogDir(settings.Log.Dir)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logger.Debug("Logging to %s", path)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	return logger.Close()
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
