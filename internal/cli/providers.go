package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/internal/integration"
	"github.com/valter-silva-au/docup/pkg/models"
)

var (
	providersListTools bool
	providersJSON      bool
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Check the configured MCP providers",
	Long: `Check that the knowledge-base and browser-automation provider commands
are installed. With --list-tools each provider is started and asked for its tools.
With the claude-cli backend the claude command's version is checked too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Catalog == nil || Config == nil {
			return fmt.Errorf("tool catalog not initialized")
		}

		var providers []models.ProviderDescriptor
		for _, c := range []models.Capability{models.CapabilityKnowledgeBase, models.CapabilityBrowserAutomation} {
			if p, ok := Config.Provider(c); ok {
				providers = append(providers, p)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		statuses := Catalog.Check(ctx, providers, providersListTools)
		if Config.Backend == models.BackendClaudeCLI && Executor != nil {
			statuses = append(statuses, integration.CheckClaudeCLI(ctx, Executor, Config.ClaudeCommand))
		}
		out := cmd.OutOrStdout()

		if providersJSON {
			data, err := json.MarshalIndent(statuses, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting providers as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		unhealthy := 0
		for _, s := range statuses {
			state := healthyStyle.Render("ok")
			detail := s.Command
			if !s.Healthy {
				unhealthy++
				state = unhealthyStyle.Render("FAIL")
				detail = s.Error
			} else if s.Version != "" {
				detail = fmt.Sprintf("%s (version %s)", s.Command, s.Version)
			} else if providersListTools {
				detail = fmt.Sprintf("%s (%d tools, %s)", s.Command, s.ToolCount, s.ResponseTime.Round(time.Millisecond))
			}
			fmt.Fprintf(out, "%-6s %-20s %s\n", state, s.Name, detail)
		}
		if unhealthy > 0 {
			return fmt.Errorf("%d of %d providers unavailable", unhealthy, len(statuses))
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().BoolVar(&providersListTools, "list-tools", false, "Start each provider and list its tools")
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(providersCmd)
}
