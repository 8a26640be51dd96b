package driving

import "github.com/custodia-labs/pikia/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetSelection updates the detection selection policy.
	SetSelection(sel domain.Selection) error

	// SetDetector configures the detection provider.
	SetDetector(provider domain.DetectorProvider, model, apiKey string) error

	// SetMaterialize updates materialization defaults.
	SetMaterialize(mode domain.TransferMode, destination string) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
