// Package plan provides the plan command, which previews a run without
// touching the storefront.
package plan

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/cmd/globals"
	"github.com/agentstation/storesync/internal/cmd/output"
	"github.com/agentstation/storesync/pkg/errors"
)

// NewCommand creates the plan command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.RunFlags

	cmd := &cobra.Command{
		Use:     "plan",
		GroupID: "core",
		Short:   "Show the changes a run would apply",
		Args:    cobra.NoArgs,
		Long: `Plan fetches both catalogs, prices the supplier feed, diffs it against the
storefront and checks the deletion guard, then prints the resulting change
plan. The storefront is never modified.

Use -o wide to include the changed fields of every update.`,
		Example: `  storesync plan                     # Show every pending change
  storesync plan -o wide             # Include field-level changes
  storesync plan --strategy additive # Only creates and updates`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return &application.ExitError{Code: application.ExitCodeOf(err), Err: err}
			}

			plan, result, planErr := client.Plan(cmd.Context(), flags.Options(cmd)...)
			if result == nil {
				return planErr
			}

			format := output.DetectFormat(app.OutputFormat())
			if err := output.FormatPlan(cmd.OutOrStdout(), plan, result, format); err != nil {
				return errors.WrapIO("write", "plan", err)
			}

			if code := result.ExitCode(); code != 0 {
				return &application.ExitError{Code: code, Err: planErr}
			}
			return nil
		},
	}

	flags = globals.AddRunFlags(cmd, false)

	return cmd
}
