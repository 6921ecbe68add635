package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/pkg/models"
)

// actionFlags are shared by update, create and review.
type actionFlags struct {
	docType string
	json    bool
	dryRun  bool
}

func (f *actionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.docType, "type", string(models.DocTypeUser), "Documentation type (user or technical)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the raw result as JSON")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the providers and prompt without calling the model")
}

// requireInstructions validates <doc> <instructions> positional arguments.
func requireInstructions(action models.Action) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: a documentation name is required", core.ErrMissingInput)
		}
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return fmt.Errorf("%w: instructions are required for %s", core.ErrMissingInput, action)
		}
		if len(args) > 2 {
			return fmt.Errorf("accepts 2 args, received %d (quote the instructions)", len(args))
		}
		return nil
	}
}

// runAction resolves the request through the orchestrator and prints the
// result, or only the plan when --dry-run is set.
func runAction(cmd *cobra.Command, flags *actionFlags, req models.TaskRequest) error {
	if Orchestrator == nil {
		return fmt.Errorf("orchestrator not initialized")
	}

	docType, err := core.ParseDocType(flags.docType)
	if err != nil {
		return err
	}
	req.DocType = docType

	out := cmd.OutOrStdout()

	if flags.dryRun {
		plan, err := Orchestrator.Prepare(req)
		if err != nil {
			return err
		}
		printPlan(out, plan.Capabilities, plan.Prompt.String())
		return nil
	}

	if ConfigMgr != nil && Config != nil {
		if err := ConfigMgr.ValidateConfig(Config); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := Orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}

	if flags.json {
		return PrintResultJSON(out, res)
	}
	return PrintResult(out, res)
}
