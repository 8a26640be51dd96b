package driven

import (
	"context"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// Detector runs object detection on one image.
//
// Implementations may include:
//   - Vision models behind an OpenAI-compatible API
//   - Sidecar files written by an offline detector
//
// Detect returns an error wrapping domain.ErrAnalysisFailed when the image
// cannot be read or identified. A readable image with nothing in it is a
// successful result with no detections.
type Detector interface {
	// Detect returns the frame size and raw detections for the image at path.
	Detect(ctx context.Context, path string) (*domain.RawAnalysis, error)

	// Name identifies the detector in logs.
	Name() string

	// Close releases resources.
	Close() error
}
