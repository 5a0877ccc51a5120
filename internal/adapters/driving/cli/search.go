package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/core/domain"
)

// snippetLength bounds the content preview in table output.
const snippetLength = 160

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested chunks",
	Long: `Runs a full-text query against the configured collection and prints the
best matching chunks, most relevant first. A query that is a record ID
returns that record first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.searcher().Search(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredRecord) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredRecord) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		rec := results[i].Record
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, rec.ID, results[i].Score)
		if src := rec.Source(); src != "" {
			cmd.Printf("      Source: %s, page %v\n", src, rec.Metadata[domain.MetaPage])
		}
		if snippet := snippet(rec.Content); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to snippetLength runes.
func snippet(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	r := []rune(s)
	if len(r) <= snippetLength {
		return s
	}
	return string(r[:snippetLength]) + "..."
}
