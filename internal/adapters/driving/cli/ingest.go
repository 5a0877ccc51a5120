package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/filenames"
)

// defaultDataDir is ingested when no directory argument is given.
const defaultDataDir = "data"

var (
	ingestNormalizeNames bool
	ingestWorkers        int
	ingestSkipUnchanged  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest every document under a directory",
	Long: `Walks the directory recursively (hidden files are skipped), extracts text,
splits it into overlapping chunks, annotates each chunk with tokens, POS tags
and named entities, and upserts the chunks into the configured collection.

Files that cannot be read or parsed are logged and skipped. The command only
fails when the document store is unreachable.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationLogFile: "true"},
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNormalizeNames, "normalize-names", false,
		"strip diacritics and whitespace from top-level file names first")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "files processed concurrently (0 = from settings)")
	ingestCmd.Flags().BoolVar(&ingestSkipUnchanged, "skip-unchanged", false, "skip files whose content is already stored")
	rootCmd.AddCommand(ingestCmd)
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultDataDir
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := dirArg(args)

	if ingestNormalizeNames {
		renamed, err := filenames.RenameDir(dir)
		if err != nil {
			return fmt.Errorf("normalising names: %w", err)
		}
		if len(renamed) > 0 {
			cmd.Printf("Renamed %d files.\n", len(renamed))
		}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if ingestWorkers > 0 {
		a.settings.Ingest.Workers = ingestWorkers
	}
	if ingestSkipUnchanged {
		a.settings.Ingest.SkipUnchanged = true
	}

	ingestor, err := a.ingestor()
	if err != nil {
		return err
	}

	cmd.Printf("Ingesting %s into %s...\n", dir, a.settings.Store.Collection)
	report, err := ingestor.Run(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *domain.RunReport) {
	cmd.Printf("Run %s finished in %s\n", r.RunID, r.Duration().Round(time.Millisecond))
	cmd.Printf("  Files:     %d\n", r.Files)
	cmd.Printf("  Processed: %d\n", r.Processed)
	cmd.Printf("  Unchanged: %d\n", r.Unchanged)
	cmd.Printf("  Failed:    %d\n", r.Failed)
	cmd.Printf("  Records:   %d\n", r.Records)
	if r.Rejected > 0 {
		cmd.Printf("  Rejected:  %d\n", r.Rejected)
	}
}
