package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	docupmcp "github.com/valter-silva-au/docup/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the docup MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docup MCP server on stdio",
	Long: `Start the docup MCP server on stdio transport.

The server exposes docup actions as MCP tools that AI coding assistants
can call: update_documentation, create_documentation, review_documentation,
register_page, list_pages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil || Pages == nil {
			return fmt.Errorf("orchestrator not initialized")
		}
		if ConfigMgr != nil && Config != nil {
			if err := ConfigMgr.ValidateConfig(Config); err != nil {
				return err
			}
		}

		srv := docupmcp.NewServer(Orchestrator, Pages, eventLogger(), appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
