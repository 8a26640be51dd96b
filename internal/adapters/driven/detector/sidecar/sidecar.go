// Package sidecar reads detections precomputed by an offline detector.
//
// Each image may have a JSON file next to it named <image>.detections.json:
//
//	{"image_size": [640, 480], "labels": ["cat"], "bboxes": [[10, 20, 300, 400]]}
//
// The object may also be wrapped in an "<OD>" key, as object detection
// models emit it. Without image_size the frame is read from the image.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/pikia/internal/adapters/driven/imaging"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// Suffix is appended to an image path to name its detections file.
const Suffix = ".detections.json"

// Ensure Detector implements the interface.
var _ driven.Detector = (*Detector)(nil)

// Path returns the detections file path for an image.
func Path(imagePath string) string {
	return imagePath + Suffix
}

// File is the on-disk detections format.
type File struct {
	ImageSize []int       `json:"image_size,omitempty"`
	Labels    []string    `json:"labels"`
	BBoxes    [][]float64 `json:"bboxes"`
	OD        *File       `json:"<OD>,omitempty"`
}

// Detector reads <image>.detections.json files.
type Detector struct{}

// New creates a sidecar detector.
func New() *Detector {
	return &Detector{}
}

// Name identifies the detector in logs.
func (d *Detector) Name() string { return "sidecar" }

// Close releases resources.
func (d *Detector) Close() error { return nil }

// Detect reads the detections file of the image at path.
// A missing or malformed file wraps domain.ErrAnalysisFailed.
func (d *Detector) Detect(ctx context.Context, path string) (*domain.RawAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(Path(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no detections file for %s", domain.ErrAnalysisFailed, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}

	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAnalysisFailed, Path(path), err)
	}
	raw.Path = path

	if raw.Frame.Validate() != nil {
		frame, err := imaging.DecodeFrame(path)
		if err != nil {
			return nil, err
		}
		raw.Frame = frame
	}
	return raw, nil
}

// Parse decodes a detections file. The frame is zero when the file has no
// image_size.
func Parse(data []byte) (*domain.RawAnalysis, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding detections: %w", err)
	}
	if f.OD != nil {
		f = *f.OD
	}

	if len(f.Labels) != len(f.BBoxes) {
		return nil, fmt.Errorf("%d labels but %d boxes", len(f.Labels), len(f.BBoxes))
	}

	raw := &domain.RawAnalysis{Detections: make([]domain.RawDetection, 0, len(f.Labels))}
	if len(f.ImageSize) == 2 {
		raw.Frame = domain.Frame{Width: f.ImageSize[0], Height: f.ImageSize[1]}
	} else if len(f.ImageSize) != 0 {
		return nil, fmt.Errorf("image_size must be [width, height]")
	}

	for i, b := range f.BBoxes {
		if len(b) != 4 {
			return nil, fmt.Errorf("box %d has %d coordinates, want 4", i, len(b))
		}
		raw.Detections = append(raw.Detections, domain.RawDetection{
			Label: f.Labels[i],
			BBox:  domain.BBox{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]},
		})
	}
	return raw, nil
}

// Write stores an analysis as the detections file of its image.
func Write(raw *domain.RawAnalysis) error {
	f := File{
		ImageSize: []int{raw.Frame.Width, raw.Frame.Height},
		Labels:    make([]string, 0, len(raw.Detections)),
		BBoxes:    make([][]float64, 0, len(raw.Detections)),
	}
	for _, d := range raw.Detections {
		f.Labels = append(f.Labels, d.Label)
		f.BBoxes = append(f.BBoxes, []float64{d.BBox.X1, d.BBox.Y1, d.BBox.X2, d.BBox.Y2})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding detections: %w", err)
	}
	if err := os.WriteFile(Path(raw.Path), data, 0644); err != nil {
		return fmt.Errorf("writing detections: %w", err)
	}
	return nil
}
