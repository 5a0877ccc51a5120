package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/core/services"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every ingested record",
	Long:  `Drops the configured collection, including its text index.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	collection := a.settings.Store.Collection
	if !resetYes {
		cmd.Printf("Drop collection %q from the %s store? [y/N]: ", collection, a.settings.Store.Backend)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if !isYes(answer) {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := services.NewResetService(a.store, collection).Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Printf("Collection %s dropped.\n", collection)
	return nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
