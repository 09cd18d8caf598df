package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server provides tools for reading the timeline and the downtime rotation,
ticking the engine, switching modes and editing activities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return fmt.Errorf("MCP server is disabled (set mcp.enabled = true in the config)")
		}

		// stdout carries the protocol; messages go to stderr.
		fmt.Fprintln(cmd.ErrOrStderr(), "🚀 Starting MCP server...")
		fmt.Fprintln(cmd.ErrOrStderr(), "   The server will communicate via stdio")
		fmt.Fprintln(cmd.ErrOrStderr(), "   Press Ctrl+C to stop")

		ctx := setupSignalHandler(cmd.Context())

		server := mcp.NewServer(app.engine, Version)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}

		return nil
	},
}
