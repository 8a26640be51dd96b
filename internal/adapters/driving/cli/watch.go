package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Analyse images as they appear in directories",
	Long: `Watch directories and register and analyse every image that is created
or rewritten in them, until interrupted with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	addScanFlags(watchCmd)
	addAnalysisFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", strings.Join(args, ", "))

	var analysed, failed int
	err = ws.Watch.Run(cmd.Context(), args, settings.Scan.Recursive, func(path string, report *driving.AnalysisReport) {
		if len(report.Failed) > 0 {
			failed++
			cmd.Printf("> invalid image %s\n", path)
			return
		}
		analysed++
		cmd.Printf("analysed %s\n", path)
	})

	cmd.Printf("%d images analysed, %d invalid\n", analysed, failed)
	return err
}
