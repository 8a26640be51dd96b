package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Choose the labels that become clusters",
	Long: `Choose which labels become output clusters. Every image claimed by a
chosen label is assigned the chosen label with the highest weight in that
image. Images that no chosen label claims keep any earlier assignment.

Without --labels an interactive checklist shows, after each toggle, how many
images the selection claims.`,
	Args: cobra.NoArgs,
	RunE: runCluster,
}

func init() {
	clusterCmd.Flags().StringSlice(flagLabels, nil, "Labels to cluster by, comma separated")
	clusterCmd.Flags().Bool(flagPreview, false, "Only report how many images the labels claim")
	clusterCmd.Flags().Bool(flagReset, false, "Clear earlier assignments of images not yet materialized")
	clusterCmd.Flags().Bool(flagNoTUI, false, "Never open the interactive checklist")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, _ []string) error {
	settings, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(cmd, WorkspaceOptions{Settings: settings})
	if err != nil {
		return err
	}
	defer closeWorkspace(ws)

	ctx := cmd.Context()
	if reset, _ := cmd.Flags().GetBool(flagReset); reset {
		if err := ws.Cluster.Reset(ctx); err != nil {
			return err
		}
		cmd.Println("Cleared earlier cluster assignments.")
	}

	labels, _ := cmd.Flags().GetStringSlice(flagLabels)
	if preview, _ := cmd.Flags().GetBool(flagPreview); preview {
		p, err := ws.Cluster.Preview(ctx, labels)
		if err != nil {
			return err
		}
		printPreview(cmd, p)
		return nil
	}

	if len(labels) == 0 {
		if !interactive(cmd) {
			return fmt.Errorf("%w: pass --%s when not running in a terminal", domain.ErrNoSelection, flagLabels)
		}
		result, err := selectClusters(ctx, ws.Cluster, tui.Options{SelectOnly: true})
		if err != nil {
			return err
		}
		labels = result.Labels
	}

	_, err = commitClusters(cmd, ws.Cluster, labels)
	return err
}

func commitClusters(cmd *cobra.Command, resolver driving.ClusterResolver, labels []string) (*driving.CommitResult, error) {
	result, err := resolver.Commit(cmd.Context(), labels)
	if errors.Is(err, domain.ErrNoSelection) {
		return nil, fmt.Errorf("%w: choose at least one label", err)
	}
	if err != nil {
		return nil, err
	}

	cmd.Printf("Assigned %d images to %d clusters\n", result.Assigned, len(result.Clusters))
	for _, name := range sortedKeys(result.Clusters) {
		cmd.Printf("  %-28s %d\n", name, result.Clusters[name])
	}
	return result, nil
}

func printPreview(cmd *cobra.Command, p *driving.ClusterPreview) {
	cmd.Printf("%d/%d affected\n", p.Affected, p.Total)
	for _, name := range sortedKeys(p.PerLabel) {
		cmd.Printf("  %-28s %d\n", name, p.PerLabel[name])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
