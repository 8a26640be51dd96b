package cli

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>...",
	Short: "Register the images found in directories",
	Long: `Scan directories for images and register them in the working database.
Registering an image twice is a no-op. Hidden files and directories are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	result, err := ws.Analysis.Register(cmd.Context(), args, settings.Scan.Recursive)
	if err != nil {
		return err
	}

	cmd.Printf("Found %d images (%d new)\n", len(result.Paths), result.Registered)
	return nil
}
