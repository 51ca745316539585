package globals

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storesync/pkg/differ"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

func TestParse(t *testing.T) {
	root := &cobra.Command{Use: "storesync"}
	AddFlags(root)
	child := &cobra.Command{Use: "run", RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(child)

	root.SetArgs([]string{"run", "--format", "yaml", "-q", "--config", "c.yaml"})
	require.NoError(t, root.Execute())

	flags := Parse(child)
	assert.Equal(t, "yaml", flags.Output, "--format aliases --output")
	assert.True(t, flags.Quiet)
	assert.Equal(t, "c.yaml", flags.Config)
	assert.False(t, flags.Verbose)
}

func TestRunFlagsOptions(t *testing.T) {
	cmd := &cobra.Command{Use: "run", RunE: func(*cobra.Command, []string) error { return nil }}
	flags := AddRunFlags(cmd, true)

	cmd.SetArgs([]string{"--dry-run", "--strategy", "additive", "--timeout", "5m"})
	require.NoError(t, cmd.Execute())

	opts := pkgsync.Defaults().Apply(pkgsync.WithLimit(7)).Apply(flags.Options(cmd)...)
	assert.True(t, opts.DryRun)
	assert.Equal(t, differ.ApplyAdditive, opts.Strategy)
	assert.Equal(t, 5*time.Minute, opts.Timeout)
	assert.Equal(t, 7, opts.Limit, "unset flags keep earlier options")
}

func TestRunFlagsWithoutDryRun(t *testing.T) {
	cmd := &cobra.Command{Use: "plan"}
	AddRunFlags(cmd, false)
	assert.Nil(t, cmd.Flags().Lookup("dry-run"))
}
