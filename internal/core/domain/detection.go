package domain

import "fmt"

// RawDetection is one region as reported by a detector, before weighting.
type RawDetection struct {
	// Label is the model-provided class name.
	Label string

	// BBox is the region in pixel coordinates of the analysed image.
	BBox BBox
}

// RawAnalysis is the detector output for one image.
// A zero-length Detections slice means the image was read but nothing was found.
type RawAnalysis struct {
	// Path identifies the image. It must match the registered file path.
	Path string

	// Frame is the pixel size of the image.
	Frame Frame

	// Detections are the regions in model output order.
	Detections []RawDetection
}

// Detection is a labelled region with weights computed once at construction.
// It is a value object: build a new one instead of changing the box or frame.
type Detection struct {
	label   string
	bbox    BBox
	frame   Frame
	weights Weights
}

// NewDetection clamps bbox to the frame and computes its weights.
// Returns ErrInvalidGeometry when the frame is empty or the clamped box is degenerate.
func NewDetection(label string, bbox BBox, frame Frame) (Detection, error) {
	if err := frame.Validate(); err != nil {
		return Detection{}, err
	}
	if err := bbox.Validate(); err != nil {
		return Detection{}, err
	}
	clamped := bbox.ClampTo(frame)
	weights, err := ComputeWeights(clamped, frame)
	if err != nil {
		return Detection{}, fmt.Errorf("detection %q: %w", label, err)
	}
	return Detection{
		label:   label,
		bbox:    clamped,
		frame:   frame,
		weights: weights,
	}, nil
}

// Label returns the class name.
func (d Detection) Label() string { return d.label }

// BBox returns the box clamped to the frame.
func (d Detection) BBox() BBox { return d.bbox }

// Frame returns the image size the weights were computed against.
func (d Detection) Frame() Frame { return d.frame }

// AreaWeight returns bbox area over frame area.
func (d Detection) AreaWeight() float64 { return d.weights.Area }

// CentralityWeight returns the centrality score.
func (d Detection) CentralityWeight() float64 { return d.weights.Centrality }

// Weight returns AreaWeight * CentralityWeight.
func (d Detection) Weight() float64 { return d.weights.Total }

// String returns a short debug representation.
func (d Detection) String() string {
	return fmt.Sprintf("Detection(%s, %.4f)", d.label, d.weights.Total)
}

// DroppedDetection records a raw detection rejected while building an analysis.
type DroppedDetection struct {
	Raw RawDetection
	Err error
}
