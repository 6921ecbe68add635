package cli

import (
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/pkg/models"
)

var (
	createFlags    actionFlags
	createParentID string
)

var createCmd = &cobra.Command{
	Use:   "create <doc> <instructions>",
	Short: "Create a new documentation page",
	Example: `  docup create deployment-guide "Explain how to deploy to production" --type technical
  docup create onboarding "Walk new users through the first login" --parent-id def456`,
	Args: requireInstructions(models.ActionCreate),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, &createFlags, models.TaskRequest{
			Identity:     models.DocumentIdentity{Name: args[0]},
			Action:       models.ActionCreate,
			Instructions: args[1],
			ParentID:     createParentID,
		})
	},
}

func init() {
	createFlags.register(createCmd)
	createCmd.Flags().StringVar(&createParentID, "parent-id", "", "Page ID to create the new page under")
	rootCmd.AddCommand(createCmd)
}
