package cli

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionShort {
			cmd.Println(version)
			return
		}

		providers := make([]string, 0, len(domain.AllDetectorProviders()))
		for _, p := range domain.AllDetectorProviders() {
			providers = append(providers, p.String())
		}

		cmd.Printf("pikia %s\n", version)
		cmd.Printf("  go:        %s\n", runtime.Version())
		cmd.Printf("  platform:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  detectors: %s\n", strings.Join(providers, ", "))
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version string")
	rootCmd.AddCommand(versionCmd)
}
