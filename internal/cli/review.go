package cli

import (
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/pkg/models"
)

var (
	reviewFlags  actionFlags
	reviewPageID string
)

var reviewCmd = &cobra.Command{
	Use:   "review <doc>",
	Short: "Review a documentation page without changing it",
	Long: `Review a documentation page for accuracy, completeness and clarity.

The model only reports findings and recommendations. A page ID is required,
either with --page-id or from the page registry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, &reviewFlags, models.TaskRequest{
			Identity: models.DocumentIdentity{Name: args[0], PageID: reviewPageID},
			Action:   models.ActionReview,
		})
	},
}

func init() {
	reviewFlags.register(reviewCmd)
	reviewCmd.Flags().StringVar(&reviewPageID, "page-id", "", "Knowledge-base page ID (overrides the registry)")
	rootCmd.AddCommand(reviewCmd)
}
