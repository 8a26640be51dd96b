package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/connectors/filesystem"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// Flag names shared by several commands.
const (
	flagRecursive     = "recursive"
	flagTopN          = "top-n"
	flagThreshold     = "threshold"
	flagDetector      = "detector"
	flagCacheSidecars = "cache-sidecars"
	flagLabels        = "labels"
	flagMode          = "mode"
	flagDest          = "dest"
	flagNoTUI         = "no-tui"
	flagPreview       = "preview"
	flagReset         = "reset"
	flagKeepSession   = "keep-session"
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP(flagRecursive, "r", true, "Descend into subdirectories")
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().Int(flagTopN, domain.DefaultTopN, "Keep the N heaviest detections per image")
	cmd.Flags().Float64(flagThreshold, domain.DefaultRelativeThreshold,
		"Keep detections until their share of the image's weight reaches this fraction")
	cmd.MarkFlagsMutuallyExclusive(flagTopN, flagThreshold)
	cmd.Flags().String(flagDetector, "", "Detector provider: vision or sidecar")
	cmd.Flags().Bool(flagCacheSidecars, false, "Store vision detections next to each image and reuse them")
}

func addMaterializeFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagMode, "", "Transfer mode: copy or move")
	cmd.Flags().String(flagDest, "", "Destination directory for the label folders")
}

// effectiveSettings loads stored settings and applies the flags the
// operator set on cmd.
func effectiveSettings(cmd *cobra.Command) (*domain.AppSettings, error) {
	var settings *domain.AppSettings
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		settings = s
	} else {
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}

	flags := cmd.Flags()
	if flags.Changed(flagRecursive) {
		settings.Scan.Recursive, _ = flags.GetBool(flagRecursive)
	}
	if flags.Changed(flagTopN) {
		n, _ := flags.GetInt(flagTopN)
		settings.Selection = domain.Selection{Method: domain.SelectionTopN, Param: float64(n)}
	}
	if flags.Changed(flagThreshold) {
		th, _ := flags.GetFloat64(flagThreshold)
		settings.Selection = domain.Selection{Method: domain.SelectionRelativeThreshold, Param: th}
	}
	if err := settings.Selection.Validate(); err != nil {
		return nil, err
	}
	if flags.Changed(flagDetector) {
		name, _ := flags.GetString(flagDetector)
		provider := domain.DetectorProvider(name)
		if !provider.IsValid() {
			return nil, fmt.Errorf("%w: detector %q", domain.ErrInvalidInput, name)
		}
		settings.Detector.Provider = provider
	}
	if flags.Changed(flagMode) {
		name, _ := flags.GetString(flagMode)
		mode := domain.TransferMode(name)
		if !mode.IsValid() {
			return nil, fmt.Errorf("%w: transfer mode %q", domain.ErrInvalidInput, name)
		}
		settings.Materialize.Mode = mode
	}
	if flags.Changed(flagDest) {
		settings.Materialize.Destination, _ = flags.GetString(flagDest)
	}

	return settings, nil
}

// destinationDir resolves the materialization root from settings.
func destinationDir(settings *domain.AppSettings) (string, error) {
	if settings.Materialize.Destination == "" {
		return "", fmt.Errorf("%w: no destination (pass --%s or set materialize.destination)",
			domain.ErrInvalidInput, flagDest)
	}
	return filesystem.SanitizePath(settings.Materialize.Destination)
}

// progressPrinter draws a single updating progress line on w.
func progressPrinter(w io.Writer, verb string) driving.ProgressFunc {
	return func(done, total int, _ string) {
		fmt.Fprintf(w, "\r%s %d/%d", verb, done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
