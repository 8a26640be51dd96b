package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui"
	"github.com/custodia-labs/pikia/internal/connectors/filesystem"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

var runCmd = &cobra.Command{
	Use:   "run <dir>...",
	Short: "Scan, analyse, cluster and materialize in one go",
	Long: `Run the whole workflow on directories of images:

  1. register every image found
  2. detect the objects in each image
  3. choose the labels that become clusters
  4. choose copy or move and a destination
  5. copy or move each image into <destination>/<label>/
  6. archive the working database into the sessions directory

In a terminal, steps 3 and 4 are interactive. Otherwise pass --labels and
--dest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	addScanFlags(runCmd)
	addAnalysisFlags(runCmd)
	addMaterializeFlags(runCmd)
	runCmd.Flags().StringSlice(flagLabels, nil, "Labels to cluster by, comma separated (skips the checklist)")
	runCmd.Flags().Bool(flagNoTUI, false, "Never open the interactive checklist")
	runCmd.Flags().Bool(flagKeepSession, false, "Keep the working database instead of archiving it")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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

	report, err := registerAndAnalyze(cmd, ws, args, settings.Scan.Recursive)
	if err != nil {
		return err
	}
	if report == nil {
		cmd.Println("No images found.")
		return nil
	}

	labels, opts, err := chooseClusters(cmd, ws, settings)
	if err != nil {
		return err
	}

	if _, err := commitClusters(cmd, ws.Cluster, labels); err != nil {
		return err
	}
	if err := ws.Cluster.Finish(); err != nil {
		return err
	}

	if err := materialize(cmd, ws, opts); err != nil {
		cmd.Println("The session was kept; run 'pikia materialize' to retry the failed images.")
		return err
	}

	if keep, _ := cmd.Flags().GetBool(flagKeepSession); keep {
		return nil
	}
	path, err := ws.Session.Archive(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Session archived to %s\n", path)
	return nil
}

// chooseClusters takes labels and transfer options from flags, or asks
// the operator when none were given on a terminal. An interactively
// entered destination gets an "output" subdirectory.
func chooseClusters(
	cmd *cobra.Command,
	ws *Workspace,
	settings *domain.AppSettings,
) ([]string, driving.MaterializeOptions, error) {
	labels, _ := cmd.Flags().GetStringSlice(flagLabels)

	if len(labels) > 0 || !interactive(cmd) {
		if len(labels) == 0 {
			return nil, driving.MaterializeOptions{},
				fmt.Errorf("%w: pass --%s when not running in a terminal", domain.ErrNoSelection, flagLabels)
		}
		dest, err := destinationDir(settings)
		if err != nil {
			return nil, driving.MaterializeOptions{}, err
		}
		return labels, driving.MaterializeOptions{Destination: dest, Mode: settings.Materialize.Mode}, nil
	}

	result, err := selectClusters(cmd.Context(), ws.Cluster, tui.Options{
		Mode:        settings.Materialize.Mode,
		Destination: settings.Materialize.Destination,
	})
	if err != nil {
		return nil, driving.MaterializeOptions{}, err
	}
	dest, err := filesystem.SanitizePath(result.Destination, "output")
	if err != nil {
		return nil, driving.MaterializeOptions{}, err
	}
	return result.Labels, driving.MaterializeOptions{Destination: dest, Mode: result.Mode}, nil
}
