package services

import (
	"fmt"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySelectionMethod  = "selection.method"
	KeySelectionParam   = "selection.param"
	KeyScanRecursive    = "scan.recursive"
	KeyScanExtensions   = "scan.extensions"
	KeyMaterializeMode  = "materialize.mode"
	KeyMaterializeDest  = "materialize.destination"
	KeyDetectorProvider = "detector.provider"
	KeyDetectorModel    = "detector.model"
	KeyDetectorBaseURL  = "detector.base_url"
	KeyDetectorAPIKey   = "detector.api_key"
	KeyDetectorMaxSide  = "detector.max_side"
	KeyDetectorRPS      = "detector.requests_per_second"
	KeyDataDir          = "data.dir"
	KeySessionsDir      = "sessions.dir"
)

// SettingKeys lists every key understood by the settings service.
func SettingKeys() []string {
	return []string{
		KeySelectionMethod, KeySelectionParam,
		KeyScanRecursive, KeyScanExtensions,
		KeyMaterializeMode, KeyMaterializeDest,
		KeyDetectorProvider, KeyDetectorModel, KeyDetectorBaseURL, KeyDetectorAPIKey,
		KeyDetectorMaxSide, KeyDetectorRPS,
		KeyDataDir, KeySessionsDir,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, filling gaps with defaults.
// Stored values that fail validation fall back to the default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Selection: s.getSelection(defaults.Selection),
		Scan: domain.ScanSettings{
			Recursive:  s.getBool(KeyScanRecursive, defaults.Scan.Recursive),
			Extensions: s.getStringSlice(KeyScanExtensions, defaults.Scan.Extensions),
		},
		Detector: domain.DetectorSettings{
			Provider:          s.getProvider(defaults.Detector.Provider),
			Model:             s.getString(KeyDetectorModel, defaults.Detector.Model),
			BaseURL:           s.configStore.GetString(KeyDetectorBaseURL), // Empty uses the OpenAI endpoint
			APIKey:            s.configStore.GetString(KeyDetectorAPIKey),
			MaxSide:           s.getInt(KeyDetectorMaxSide, defaults.Detector.MaxSide),
			RequestsPerSecond: s.getFloat(KeyDetectorRPS, defaults.Detector.RequestsPerSecond),
		},
		Materialize: domain.MaterializeSettings{
			Mode:        s.getTransferMode(defaults.Materialize.Mode),
			Destination: s.configStore.GetString(KeyMaterializeDest),
		},
		Data: domain.DataSettings{
			Dir:         s.configStore.GetString(KeyDataDir),
			SessionsDir: s.getString(KeySessionsDir, defaults.Data.SessionsDir),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeySelectionMethod, settings.Selection.Method.String()},
		{KeySelectionParam, settings.Selection.Param},
		{KeyScanRecursive, settings.Scan.Recursive},
		{KeyScanExtensions, settings.Scan.Extensions},
		{KeyMaterializeMode, settings.Materialize.Mode.String()},
		{KeyMaterializeDest, settings.Materialize.Destination},
		{KeyDetectorProvider, settings.Detector.Provider.String()},
		{KeyDetectorModel, settings.Detector.Model},
		{KeyDetectorBaseURL, settings.Detector.BaseURL},
		{KeyDetectorMaxSide, settings.Detector.MaxSide},
		{KeyDetectorRPS, settings.Detector.RequestsPerSecond},
		{KeyDataDir, settings.Data.Dir},
		{KeySessionsDir, settings.Data.SessionsDir},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Never blank out a stored key
	if settings.Detector.APIKey != "" {
		if err := s.configStore.Set(KeyDetectorAPIKey, settings.Detector.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyDetectorAPIKey, err)
		}
	}

	return nil
}

// SetSelection updates the detection selection policy.
func (s *SettingsService) SetSelection(sel domain.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Selection = sel
	return s.Save(settings)
}

// SetDetector configures the detection provider.
func (s *SettingsService) SetDetector(provider domain.DetectorProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: detector provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Keep a previously stored key when none is given
	if apiKey == "" {
		apiKey = settings.Detector.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Detector.Provider = provider
	settings.Detector.APIKey = apiKey
	if model != "" {
		settings.Detector.Model = model
	}

	return s.Save(settings)
}

// SetMaterialize updates materialization defaults.
func (s *SettingsService) SetMaterialize(mode domain.TransferMode, destination string) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: transfer mode %q", domain.ErrInvalidInput, mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Materialize.Mode = mode
	settings.Materialize.Destination = destination
	return s.Save(settings)
}

// Validate checks that stored settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Selection.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if !settings.Detector.IsConfigured() {
		return fmt.Errorf("%w: detector %q is not configured (set %s)",
			domain.ErrInvalidInput, settings.Detector.Provider, KeyDetectorAPIKey)
	}
	if settings.Detector.MaxSide <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, KeyDetectorMaxSide)
	}
	if settings.Detector.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, KeyDetectorRPS)
	}
	if len(settings.Scan.Extensions) == 0 {
		return fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, KeyScanExtensions)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return val
}

func (s *SettingsService) getSelection(defaultVal domain.Selection) domain.Selection {
	method := domain.SelectionMethod(s.configStore.GetString(KeySelectionMethod))
	if !method.IsValid() {
		return defaultVal
	}

	sel := domain.Selection{Method: method, Param: method.DefaultParam()}
	if _, exists := s.configStore.Get(KeySelectionParam); exists {
		sel.Param = s.configStore.GetFloat(KeySelectionParam)
	}
	if sel.Validate() != nil {
		return domain.Selection{Method: method, Param: method.DefaultParam()}
	}
	return sel
}

func (s *SettingsService) getProvider(defaultVal domain.DetectorProvider) domain.DetectorProvider {
	provider := domain.DetectorProvider(s.configStore.GetString(KeyDetectorProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getTransferMode(defaultVal domain.TransferMode) domain.TransferMode {
	mode := domain.TransferMode(s.configStore.GetString(KeyMaterializeMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
