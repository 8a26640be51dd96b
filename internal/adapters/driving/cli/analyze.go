package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>...",
	Short: "Detect objects in the images of directories",
	Long: `Register the images found in directories and run object detection on
them. The heaviest detections of each image, by area and centrality, are
recorded as its candidate labels.

Images that cannot be read are listed at the end; they do not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	addScanFlags(analyzeCmd)
	addAnalysisFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	cache, _ := cmd.Flags().GetBool(flagCacheSidecars)

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings, NeedDetector: true, CacheSidecars: cache})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	_, err = registerAndAnalyze(cmd, ws, args, settings.Scan.Recursive)
	return err
}

// registerAndAnalyze registers the images under dirs and analyses them,
// printing a summary. Returns nil report when no image was found.
func registerAndAnalyze(cmd *cobra.Command, ws *Workspace, dirs []string, recursive bool) (*driving.AnalysisReport, error) {
	ctx := cmd.Context()

	scan, err := ws.Analysis.Register(ctx, dirs, recursive)
	if err != nil {
		return nil, err
	}
	cmd.Printf("Found %d images (%d new)\n", len(scan.Paths), scan.Registered)
	if len(scan.Paths) == 0 {
		return nil, nil
	}

	report, err := ws.Analysis.Analyze(ctx, scan.Paths, progressPrinter(cmd.ErrOrStderr(), "Analyzing"))
	if report != nil {
		printAnalysisReport(cmd, report)
	}
	return report, err
}

func printAnalysisReport(cmd *cobra.Command, report *driving.AnalysisReport) {
	cmd.Printf("%d files processed\n", report.Processed)
	if report.Dropped > 0 {
		cmd.Printf("%d detections dropped for invalid geometry\n", report.Dropped)
	}
	if len(report.Failed) > 0 {
		cmd.Printf("%d invalid images:\n", len(report.Failed))
		for _, f := range report.Failed {
			cmd.Printf("> %s\n", f.Path)
		}
	}
}
