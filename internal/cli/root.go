package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/internal/core"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// AppVersion returns the version set by SetVersionInfo.
func AppVersion() string {
	return appVersion
}

var addPageName string

var rootCmd = &cobra.Command{
	Use:   "docup",
	Short: "Keep documentation pages in sync by directing a model through MCP providers",
	Long: `docup updates, creates and reviews documentation pages in a knowledge base
(Notion by default). It builds an instruction prompt for the request, grants
the model the MCP providers the documentation type needs, and makes exactly
one model call.

User documentation gets the knowledge base and browser automation (for
screenshots). Technical documentation gets the knowledge base and is checked
against the codebase.

Register a page once so later commands can find it by name:

  docup --add-page auth-guide abc123
  docup update auth-guide "Add a section about OAuth 2.0 authentication"`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addPageName == "" {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		}
		if len(args) != 1 {
			return fmt.Errorf("%w: --add-page takes a name and a page ID (docup --add-page NAME ID)", core.ErrMissingInput)
		}
		if Pages == nil {
			return fmt.Errorf("page registry not initialized")
		}
		if err := core.RegisterPage(Pages, eventLogger(), addPageName, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added page '%s' with ID '%s'\n", addPageName, args[0])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docup %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.Flags().StringVar(&addPageName, "add-page", "", "Register a page: --add-page NAME PAGE_ID")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
