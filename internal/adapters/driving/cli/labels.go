package cli

import (
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List recorded labels by number of images",
	Args:  cobra.NoArgs,
	RunE:  runLabels,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}

func runLabels(cmd *cobra.Command, _ []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	labels, err := ws.Cluster.Labels(cmd.Context())
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		cmd.Println("No labels recorded. Run 'pikia analyze <dir>' first.")
		return nil
	}

	cmd.Printf("%-30s %s\n", "LABEL", "IMAGES")
	for _, l := range labels {
		cmd.Printf("%-30s %d\n", l.Label.Name, l.Files)
	}
	return nil
}
