package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/storesync/cmd/storesync/cmd/plan"
	"github.com/agentstation/storesync/cmd/storesync/cmd/run"
	"github.com/agentstation/storesync/cmd/storesync/cmd/schedule"
	"github.com/agentstation/storesync/cmd/storesync/cmd/version"
	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/cmd/globals"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
)

// Execute runs the storesync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "storesync",
		Short:   "Supplier to storefront catalog reconciliation",
		Version: a.version,
		Long: `Storesync keeps a storefront's product catalog consistent with a supplier's
product feed.

Every run fetches the supplier feed, normalizes and prices it, diffs it
against the storefront and applies the resulting creates, updates and
deletes with retry and pacing. A deletion guard aborts runs that would
remove too much of the catalog.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	globals.AddFlags(rootCmd)
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("storesync {{.Version}}\n")
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}
	if a.errOut != nil {
		rootCmd.SetErr(a.errOut)
	}

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags := globals.Parse(cmd)

	// An explicit config file replaces the configuration loaded at startup
	if flags.Config != "" && flags.Config != a.config.ConfigFile {
		config, err := LoadConfig(flags.Config)
		if err != nil {
			return &application.ExitError{Code: application.ExitCodeOf(err), Err: err}
		}
		a.config = config
	}

	logLevel, _ := cmd.Root().PersistentFlags().GetString("log-level")
	a.config.UpdateFromFlags(flags.Verbose, flags.Quiet, flags.NoColor, flags.Output, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	if a.config.ConfigFile != "" {
		a.logger.Debug().Str("file", a.config.ConfigFile).Msg("Using config file")
	}
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(run.NewCommand(a))
	rootCmd.AddCommand(plan.NewCommand(a))
	rootCmd.AddCommand(schedule.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError prints err and exits. A command that already reported its
// outcome returns an ExitError carrying the status; anything else exits 1.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	var exit *application.ExitError
	if !errors.As(err, &exit) || exit.Err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
	}
	os.Exit(application.ExitCodeOf(err))
}
