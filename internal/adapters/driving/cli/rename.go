package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/filenames"
)

var renameCmd = &cobra.Command{
	Use:   "rename [directory]",
	Short: "Normalise file names in a directory",
	Long: `Strips diacritics and replaces whitespace with underscores in the names of
files directly inside the directory. Subdirectories are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	renamed, err := filenames.RenameDir(dirArg(args))
	if err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	for _, r := range renamed {
		cmd.Printf("%s -> %s\n", filepath.Base(r.From), filepath.Base(r.To))
	}
	cmd.Printf("Renamed %d files.\n", len(renamed))
	return nil
}
