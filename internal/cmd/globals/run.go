package globals

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/storesync/pkg/differ"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// RunFlags holds the flags shared by commands that perform a run.
type RunFlags struct {
	DryRun   bool
	Strategy string
	Timeout  time.Duration
	Limit    int
}

// AddRunFlags adds run flags to cmd. Flags left unset fall back to the
// configured run defaults.
func AddRunFlags(cmd *cobra.Command, withDryRun bool) *RunFlags {
	flags := &RunFlags{}

	if withDryRun {
		cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
			"Plan and report without touching the storefront")
	}
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "",
		"Operations to apply: all, additive, updates-only, additions-only")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0,
		"Budget for the entire run (e.g. 30m)")
	cmd.Flags().IntVar(&flags.Limit, "limit", 0,
		"Only reconcile the first N supplier records")

	return flags
}

// Options converts the flags that were set on cmd into run options.
func (f *RunFlags) Options(cmd *cobra.Command) []pkgsync.Option {
	var opts []pkgsync.Option
	if cmd.Flags().Changed("dry-run") {
		opts = append(opts, pkgsync.WithDryRun(f.DryRun))
	}
	if cmd.Flags().Changed("strategy") {
		opts = append(opts, pkgsync.WithStrategy(differ.ApplyStrategy(f.Strategy)))
	}
	if cmd.Flags().Changed("timeout") {
		opts = append(opts, pkgsync.WithTimeout(f.Timeout))
	}
	if cmd.Flags().Changed("limit") {
		opts = append(opts, pkgsync.WithLimit(f.Limit))
	}
	return opts
}
