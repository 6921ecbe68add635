package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/pkg/models"
)

var (
	updateFlags            actionFlags
	updatePageID           string
	updatePriorContentFile string
)

var updateCmd = &cobra.Command{
	Use:   "update <doc> <instructions>",
	Short: "Update an existing documentation page",
	Long: `Update an existing documentation page following the given instructions.

The page ID comes from --page-id or from the page registry (see
'docup pages add'). When neither has one, the model is asked to find the
page itself.`,
	Example: `  docup update auth-guide "Add a section about OAuth 2.0 authentication"
  docup update api-reference "Document the new /v2/users endpoint" --type technical --page-id abc123`,
	Args: requireInstructions(models.ActionUpdate),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.TaskRequest{
			Identity:     models.DocumentIdentity{Name: args[0], PageID: updatePageID},
			Action:       models.ActionUpdate,
			Instructions: args[1],
		}
		if updatePriorContentFile != "" {
			data, err := os.ReadFile(updatePriorContentFile)
			if err != nil {
				return fmt.Errorf("reading prior content: %w", err)
			}
			req.PriorContent = string(data)
		}
		return runAction(cmd, &updateFlags, req)
	},
}

func init() {
	updateFlags.register(updateCmd)
	updateCmd.Flags().StringVar(&updatePageID, "page-id", "", "Knowledge-base page ID (overrides the registry)")
	updateCmd.Flags().StringVar(&updatePriorContentFile, "prior-content-file", "", "File holding a snapshot of the current page content")
	rootCmd.AddCommand(updateCmd)
}
