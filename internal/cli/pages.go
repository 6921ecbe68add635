package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/internal/core"
)

var pagesJSON bool

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Manage the documentation page registry",
	Long: `Manage the mapping from documentation names to knowledge-base page IDs.

Registered pages are stored in .docup/pages.yaml. Pages listed under 'pages'
in .docup.yaml are also known but are not written back.`,
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pages == nil {
			return fmt.Errorf("page registry not initialized")
		}
		entries := Pages.List()
		out := cmd.OutOrStdout()

		if pagesJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting pages as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No pages registered. Add one with: docup pages add NAME PAGE_ID")
			return nil
		}
		fmt.Fprintf(out, "%-30s %s\n", "NAME", "PAGE ID")
		for _, e := range entries {
			source := ""
			if e.Registered.IsZero() {
				source = dimStyle.Render(" (config)")
			}
			fmt.Fprintf(out, "%-30s %s%s\n", e.Name, e.PageID, source)
		}
		return nil
	},
}

var pagesAddCmd = &cobra.Command{
	Use:   "add <name> <page-id>",
	Short: "Register a page ID for a documentation name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pages == nil {
			return fmt.Errorf("page registry not initialized")
		}
		if err := core.RegisterPage(Pages, eventLogger(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added page '%s' with ID '%s'\n", args[0], args[1])
		return nil
	},
}

var pagesRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a registered page",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pages == nil {
			return fmt.Errorf("page registry not initialized")
		}
		if err := core.UnregisterPage(Pages, eventLogger(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed page '%s'\n", args[0])
		return nil
	},
}

func init() {
	pagesListCmd.Flags().BoolVar(&pagesJSON, "json", false, "Output pages as JSON")
	pagesCmd.AddCommand(pagesListCmd, pagesAddCmd, pagesRemoveCmd)
	rootCmd.AddCommand(pagesCmd)
}
