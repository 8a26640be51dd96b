package domain

import "strings"

const unknownDescription = "Unknown"

// TransferMode defines how a file reaches its cluster folder.
type TransferMode string

// Available transfer modes.
const (
	// TransferCopy keeps the original file in place.
	TransferCopy TransferMode = "copy"

	// TransferMove removes the original file after transfer.
	TransferMove TransferMode = "move"
)

// IsValid returns true if the transfer mode is recognised.
func (m TransferMode) IsValid() bool {
	return m == TransferCopy || m == TransferMove
}

// String returns the string representation.
func (m TransferMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m TransferMode) Description() string {
	switch m {
	case TransferCopy:
		return "Copy (keep original files)"
	case TransferMove:
		return "Move (remove original files)"
	default:
		return unknownDescription
	}
}

// DetectorProvider identifies where detections come from.
type DetectorProvider string

// Available detector providers.
const (
	// DetectorVision asks an OpenAI-compatible vision model for detections.
	DetectorVision DetectorProvider = "vision"

	// DetectorSidecar reads precomputed detections stored next to each image.
	DetectorSidecar DetectorProvider = "sidecar"
)

// IsValid returns true if the provider is recognised.
func (p DetectorProvider) IsValid() bool {
	return p == DetectorVision || p == DetectorSidecar
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p DetectorProvider) RequiresAPIKey() bool {
	return p == DetectorVision
}

// String returns the string representation.
func (p DetectorProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p DetectorProvider) Description() string {
	switch p {
	case DetectorVision:
		return "Vision model (OpenAI-compatible API)"
	case DetectorSidecar:
		return "Sidecar files (<image>.detections.json)"
	default:
		return unknownDescription
	}
}

// DefaultImageExtensions are the file extensions picked up by scans.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".ico", ".webp"}

// ScanSettings holds directory scanning configuration.
type ScanSettings struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// Extensions are matched case-insensitively, with leading dot.
	Extensions []string
}

// DetectorSettings holds detection provider configuration.
type DetectorSettings struct {
	// Provider selects the detector implementation.
	Provider DetectorProvider

	// Model is the vision model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey authenticates vision requests.
	APIKey string

	// MaxSide bounds the longest image side sent to the model, in pixels.
	MaxSide int

	// RequestsPerSecond paces calls to the model.
	RequestsPerSecond float64
}

// IsConfigured returns true if the detector can be constructed.
func (d DetectorSettings) IsConfigured() bool {
	if !d.Provider.IsValid() {
		return false
	}
	if d.Provider.RequiresAPIKey() && d.APIKey == "" {
		return false
	}
	return true
}

// MaterializeSettings holds defaults for the materialization step.
type MaterializeSettings struct {
	// Mode is copy or move.
	Mode TransferMode

	// Destination is the output root. Empty means ask.
	Destination string
}

// DataSettings holds storage locations.
type DataSettings struct {
	// Dir holds the working database. Empty means ~/.pikia/data.
	Dir string

	// SessionsDir receives archived databases. Empty means ./sessions.
	SessionsDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Selection controls how many detections per image are recorded.
	Selection Selection

	// Scan holds directory scanning settings.
	Scan ScanSettings

	// Detector holds detection provider settings.
	Detector DetectorSettings

	// Materialize holds output settings.
	Materialize MaterializeSettings

	// Data holds storage locations.
	Data DataSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The detector API key is left empty; vision detection needs it configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Selection: DefaultSelection(),
		Scan: ScanSettings{
			Recursive:  true,
			Extensions: append([]string(nil), DefaultImageExtensions...),
		},
		Detector: DetectorSettings{
			Provider:          DetectorSidecar,
			Model:             "gpt-4o-mini",
			MaxSide:           1024,
			RequestsPerSecond: 2,
		},
		Materialize: MaterializeSettings{
			Mode: TransferCopy,
		},
		Data: DataSettings{
			SessionsDir: "sessions",
		},
	}
}

// AllSelectionMethods returns all available selection methods.
func AllSelectionMethods() []SelectionMethod {
	return []SelectionMethod{SelectionTopN, SelectionRelativeThreshold}
}

// AllTransferModes returns all available transfer modes.
func AllTransferModes() []TransferMode {
	return []TransferMode{TransferCopy, TransferMove}
}

// AllDetectorProviders returns all available detector providers.
func AllDetectorProviders() []DetectorProvider {
	return []DetectorProvider{DetectorVision, DetectorSidecar}
}

// HasImageExtension reports whether path ends in one of exts, ignoring case.
func HasImageExtension(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
