package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/connectors"
	"github.com/rag4u/ingest/internal/core/services"
)

var watchNoInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Re-ingest whenever new files appear",
	Long: `Watches the top level of a directory and runs a full ingestion whenever
files are created. Bursts of new files are coalesced into a single run.
Stop with Ctrl+C.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationLogFile: "true"},
	RunE:        runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "do not ingest before the first event")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := dirArg(args)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ingestor, err := a.ingestor()
	if err != nil {
		return err
	}

	var opts []services.WatchOption
	if !watchNoInitial {
		opts = append(opts, services.WithInitialRun())
	}
	watcher := services.NewWatchService(ingestor, connectors.Filesystem, a.settings.Watch, opts...)

	cmd.Printf("Watching %s (Ctrl+C to stop)...\n", dir)
	if err := watcher.Watch(ctx, dir); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
