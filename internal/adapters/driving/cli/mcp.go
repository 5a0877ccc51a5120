package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so a question-answering front end
can retrieve chunks (search tool, rag4u://records/{id} resource) and trigger
ingestion (ingest tool).

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  rag4u mcp serve

  # HTTP mode
  rag4u mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("read-only", false, "do not expose the ingest tool")
	mcpServeCmd.Flags().String("data-dir", defaultDataDir, "directory the ingest tool uses by default")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	readOnly, err := cmd.Flags().GetBool("read-only")
	if err != nil {
		return fmt.Errorf("getting read-only flag: %w", err)
	}
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return fmt.Errorf("getting data-dir flag: %w", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ports := &mcp.Ports{
		Search:     a.searcher(),
		DefaultDir: dataDir,
	}
	if !readOnly {
		ingestor, err := a.ingestor()
		if err != nil {
			return err
		}
		ports.Ingest = ingestor
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
