// Package run provides the run command, which performs one reconciliation run.
package run

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storesync/internal/cmd/alerts"
	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/cmd/globals"
	"github.com/agentstation/storesync/internal/cmd/output"
	"github.com/agentstation/storesync/pkg/errors"
)

// NewCommand creates the run command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.RunFlags

	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile the storefront with the supplier feed once",
		Args:    cobra.NoArgs,
		Long: `Run performs one reconciliation run:

1. Fetch the supplier feed and normalize it into products
2. Apply the pricing rule to obtain the desired catalog
3. List the storefront and diff it against the desired catalog
4. Check the deletion guard
5. Apply the plan with retry and pacing

A report is printed for every run, including aborted ones. The exit status
is 0 when the run completed, even with per-product failures, and non-zero
when the run was aborted.`,
		Example: `  storesync run                      # Apply every pending change
  storesync run --dry-run            # Report the plan without applying it
  storesync run --strategy additive  # Creates and updates only
  storesync run -o json              # Machine-readable report`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, flags)
		},
	}

	flags = globals.AddRunFlags(cmd, true)

	return cmd
}

// Execute performs the run and writes its report to the command output.
func Execute(cmd *cobra.Command, app application.Application, flags *globals.RunFlags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return &application.ExitError{Code: application.ExitCodeOf(err), Err: err}
	}

	result, runErr := client.Run(ctx, flags.Options(cmd)...)
	if result == nil {
		// another run holds the client
		return runErr
	}

	format := output.DetectFormat(app.OutputFormat())
	if err := output.FormatResult(cmd.OutOrStdout(), result, format); err != nil {
		return errors.WrapIO("write", "report", err)
	}

	alert := alerts.FromResult(result)
	if err := alerts.NewFormatWriter(cmd.ErrOrStderr(), format).WriteAlert(alert); err != nil {
		logger.Warn().Err(err).Msg("Failed to write run alert")
	}

	if code := result.ExitCode(); code != 0 {
		return &application.ExitError{Code: code, Err: runErr}
	}
	return nil
}
