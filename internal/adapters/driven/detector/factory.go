// Package detector builds the configured detection adapter.
package detector

import (
	"fmt"

	"github.com/custodia-labs/pikia/internal/adapters/driven/detector/sidecar"
	"github.com/custodia-labs/pikia/internal/adapters/driven/detector/vision"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// Options adjust how the detector is assembled.
type Options struct {
	// Prompts supplies vision prompt templates. May be nil.
	Prompts driven.PromptStore

	// CacheSidecars writes vision results next to each image and reuses them.
	CacheSidecars bool
}

// Create returns the detector selected by settings.
func Create(settings *domain.DetectorSettings, opts Options) (driven.Detector, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: detector not configured", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.DetectorSidecar:
		return sidecar.New(), nil

	case domain.DetectorVision:
		if !settings.IsConfigured() {
			return nil, fmt.Errorf("%w: vision detector needs an API key. Run 'pikia settings set detector.api_key <key>' to fix",
				domain.ErrInvalidInput)
		}
		d, err := vision.New(vision.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			MaxSide:           settings.MaxSide,
			RequestsPerSecond: settings.RequestsPerSecond,
		}, opts.Prompts)
		if err != nil {
			return nil, err
		}
		if opts.CacheSidecars {
			return sidecar.NewCache(d), nil
		}
		return d, nil

	default:
		return nil, fmt.Errorf("%w: unsupported detector provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}
