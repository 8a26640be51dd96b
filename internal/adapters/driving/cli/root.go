// Package cli provides the pikia command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	verbose          bool
	settingsService  driving.SettingsService
	workspaceFactory WorkspaceFactory
)

var rootCmd = &cobra.Command{
	Use:   "pikia",
	Short: "Cluster images by the objects they contain",
	Long: `pikia detects the objects in a collection of images, ranks them by
how large and how central they are, and sorts the images into one folder
per selected label.

Run 'pikia run <dir>' for the full interactive workflow, or use the
scan, analyze, cluster and materialize commands one step at a time.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
}

// SetSettingsService sets the settings service used by all commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetWorkspaceFactory sets how commands open the working database.
func SetWorkspaceFactory(f WorkspaceFactory) {
	workspaceFactory = f
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
