package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/services"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestApplySetting(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, s *domain.AppSettings)
	}{
		{services.KeySelectionMethod, "relative_threshold", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.Selection{Method: domain.SelectionRelativeThreshold, Param: 0.8}, s.Selection)
		}},
		{services.KeySelectionParam, "5", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.Selection{Method: domain.SelectionTopN, Param: 5}, s.Selection)
		}},
		{services.KeyScanRecursive, "false", func(t *testing.T, s *domain.AppSettings) {
			assert.False(t, s.Scan.Recursive)
		}},
		{services.KeyScanExtensions, "JPG, .png,,", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, []string{".jpg", ".png"}, s.Scan.Extensions)
		}},
		{services.KeyMaterializeMode, "move", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.TransferMove, s.Materialize.Mode)
		}},
		{services.KeyMaterializeDest, " /srv/out ", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "/srv/out", s.Materialize.Destination)
		}},
		{services.KeyDetectorProvider, "vision", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, domain.DetectorVision, s.Detector.Provider)
		}},
		{services.KeyDetectorModel, "gpt-4o", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "gpt-4o", s.Detector.Model)
		}},
		{services.KeyDetectorBaseURL, "http://localhost:11434/v1", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "http://localhost:11434/v1", s.Detector.BaseURL)
		}},
		{services.KeyDetectorAPIKey, "sk-secret", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "sk-secret", s.Detector.APIKey)
		}},
		{services.KeyDetectorMaxSide, "512", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, 512, s.Detector.MaxSide)
		}},
		{services.KeyDetectorRPS, "0.5", func(t *testing.T, s *domain.AppSettings) {
			assert.InDelta(t, 0.5, s.Detector.RequestsPerSecond, 1e-9)
		}},
		{services.KeyDataDir, "/var/lib/pikia", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "/var/lib/pikia", s.Data.Dir)
		}},
		{services.KeySessionsDir, "archive", func(t *testing.T, s *domain.AppSettings) {
			assert.Equal(t, "archive", s.Data.SessionsDir)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			require.NoError(t, applySetting(&settings, tt.key, tt.value))
			tt.check(t, &settings)
		})
	}
}

func TestApplySetting_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  error
	}{
		{services.KeySelectionMethod, "median", domain.ErrUnsupportedMethod},
		{services.KeySelectionParam, "many", domain.ErrInvalidInput},
		{services.KeySelectionParam, "2.5", domain.ErrInvalidInput},
		{services.KeyScanRecursive, "sometimes", domain.ErrInvalidInput},
		{services.KeyScanExtensions, " , ", domain.ErrInvalidInput},
		{services.KeyMaterializeMode, "link", domain.ErrInvalidInput},
		{services.KeyDetectorProvider, "magic", domain.ErrInvalidInput},
		{services.KeyDetectorAPIKey, "", domain.ErrInvalidInput},
		{services.KeyDetectorMaxSide, "0", domain.ErrInvalidInput},
		{services.KeyDetectorRPS, "-1", domain.ErrInvalidInput},
		{services.KeySessionsDir, "", domain.ErrInvalidInput},
		{"search.mode", "hybrid", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			assert.ErrorIs(t, applySetting(&settings, tt.key, tt.value), tt.want)
		})
	}
}

func TestApplySetting_ParamFollowsMethod(t *testing.T) {
	settings := domain.DefaultAppSettings()
	require.NoError(t, applySetting(&settings, services.KeySelectionMethod, "relative_threshold"))
	assert.ErrorIs(t, applySetting(&settings, services.KeySelectionParam, "3"), domain.ErrInvalidInput)
	require.NoError(t, applySetting(&settings, services.KeySelectionParam, "0.5"))
	assert.InDelta(t, 0.5, settings.Selection.Param, 1e-9)
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, parseExtensions("jpg,.JPEG, png"))
	assert.Empty(t, parseExtensions(""))
	assert.Empty(t, parseExtensions(".,  ,"))
}

func TestSettingsCmd_Show(t *testing.T) {
	newTestEnv(t)

	out, err := execute(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "[Selection]")
	assert.Contains(t, out, "Method: top_n")
	assert.Contains(t, out, "[Detector]")
	assert.Contains(t, out, "[Materialize]")
	assert.Contains(t, out, "Destination: (ask)")
	assert.Contains(t, out, "Sessions directory: sessions")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_SetAndShow(t *testing.T) {
	newTestEnv(t)

	out, err := execute(t, "settings", "set", "detector.provider", "vision")
	require.NoError(t, err)
	assert.Contains(t, out, "detector.provider set to vision")

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "Warning:")

	out, err = execute(t, "settings", "set", "detector.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "detector.api_key set to sk-1...cdef")
	assert.NotContains(t, out, "1234567890")

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_SetFeedsCommands(t *testing.T) {
	env := newTestEnv(t)

	_, err := execute(t, "settings", "set", "selection.param", "1")
	require.NoError(t, err)

	_, err = execute(t, "analyze", env.imageDir)
	require.NoError(t, err)
	require.NotEmpty(t, env.opened)
	assert.Equal(t, domain.Selection{Method: domain.SelectionTopN, Param: 1}, env.opened[0].Settings.Selection)
}

func TestSettingsCmd_SetRequiresValue(t *testing.T) {
	newTestEnv(t)

	_, err := execute(t, "settings", "set", "materialize.mode")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Keys(t *testing.T) {
	newTestEnv(t)

	out, err := execute(t, "settings", "keys")
	require.NoError(t, err)
	for _, k := range services.SettingKeys() {
		assert.Contains(t, out, k)
	}
}

func TestSettingsCmd_DetectorWizard(t *testing.T) {
	newTestEnv(t)
	_, err := execute(t, "settings", "set", "detector.provider", "vision")
	require.NoError(t, err)

	rootCmd.SetIn(strings.NewReader("2\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "settings", "detector")
	require.NoError(t, err)
	assert.Contains(t, out, "Select Detector")
	assert.Contains(t, out, "Detector configured")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DetectorSidecar, settings.Detector.Provider)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	resetCommands(t)

	_, err := execute(t, "settings")
	assert.ErrorContains(t, err, "settings service not configured")
}
