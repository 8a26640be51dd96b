package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/core/services"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Copy or move clustered images into label folders",
	Long: `Copy or move every clustered image into <dest>/<label>/. Name clashes
are resolved with a numeric suffix (photo_0.jpg, photo_1.jpg, ...). Images
already materialized by an earlier run are skipped, so an interrupted run
can simply be repeated.`,
	Args: cobra.NoArgs,
	RunE: runMaterialize,
}

func init() {
	addMaterializeFlags(materializeCmd)
	rootCmd.AddCommand(materializeCmd)
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	dest, err := destinationDir(settings)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings, Resume: true})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	return materialize(cmd, ws, driving.MaterializeOptions{Destination: dest, Mode: settings.Materialize.Mode})
}

// materialize runs the transfer and prints its report. Per-image failures
// are returned joined once the batch is done.
func materialize(cmd *cobra.Command, ws *Workspace, opts driving.MaterializeOptions) error {
	report, err := ws.Materializer.Materialize(cmd.Context(), opts,
		progressPrinter(cmd.ErrOrStderr(), "Transferring"))
	if report != nil {
		cmd.Printf("%d images %s to %s", len(report.Transferred), pastTense(opts), opts.Destination)
		if report.Skipped > 0 {
			cmd.Printf(" (%d already done)", report.Skipped)
		}
		cmd.Println()
	}
	if err != nil {
		return err
	}
	return services.FailureSummary(report.Failed)
}

func pastTense(opts driving.MaterializeOptions) string {
	if opts.Mode == domain.TransferMove {
		return "moved"
	}
	return "copied"
}
