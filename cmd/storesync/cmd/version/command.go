// Package version provides the version command.
package version

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/storesync/internal/cmd/application"
	"github.com/agentstation/storesync/internal/cmd/output"
)

// Info is the build information printed by the version command.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// keys orders the table view.
var keys = []string{"version", "commit", "date", "built_by", "go_version", "platform"}

// NewCommand creates the version command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "management",
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)
			if !format.IsTable() {
				return formatter.Format(cmd.OutOrStdout(), info)
			}
			return formatter.Format(cmd.OutOrStdout(), output.KeyValue(keys, map[string]string{
				"version":    info.Version,
				"commit":     info.Commit,
				"date":       info.Date,
				"built_by":   info.BuiltBy,
				"go_version": info.GoVersion,
				"platform":   info.Platform,
			}))
		},
	}
}
