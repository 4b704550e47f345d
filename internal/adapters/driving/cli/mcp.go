package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesync/internal/adapters/driving/mcp"
	"github.com/custodia-labs/notesync/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an AI assistant can start,
cancel and inspect syncs.

The server owns its own sync coordinator; syncs started through it run in
this process. By default it communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  notesync mcp serve

  # HTTP mode
  notesync mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "notesync": {
        "command": "/path/to/notesync",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	rt := active
	ports := &mcp.Ports{
		Coordinator: rt.Coordinator,
		Progress:    rt.Progress,
		History:     rt.History,
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
		defer cancel()
		if err := rt.Coordinator.Shutdown(ctx); err != nil {
			logger.Warn("mcp: sync did not stop in time: %v", err)
		}
	}()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
