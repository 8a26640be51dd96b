package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
)

// SelectionMethod chooses how many ranked detections are kept per image.
type SelectionMethod string

// Available selection methods.
const (
	// SelectionTopN keeps the first N detections by weight.
	SelectionTopN SelectionMethod = "top_n"

	// SelectionRelativeThreshold keeps the shortest prefix whose share of
	// the image's total weight reaches the threshold.
	SelectionRelativeThreshold SelectionMethod = "relative_threshold"
)

// Default selection parameters.
const (
	DefaultTopN              = 3
	DefaultRelativeThreshold = 0.8
)

// IsValid returns true if the method is recognised.
func (m SelectionMethod) IsValid() bool {
	return m == SelectionTopN || m == SelectionRelativeThreshold
}

// String returns the string representation.
func (m SelectionMethod) String() string {
	return string(m)
}

// DefaultParam returns the parameter used when none is configured.
func (m SelectionMethod) DefaultParam() float64 {
	if m == SelectionRelativeThreshold {
		return DefaultRelativeThreshold
	}
	return DefaultTopN
}

// Selection is a method and its parameter. It is comparable and used as a cache key.
type Selection struct {
	Method SelectionMethod
	Param  float64
}

// DefaultSelection returns top_n with N = 3.
func DefaultSelection() Selection {
	return Selection{Method: SelectionTopN, Param: DefaultTopN}
}

// Validate checks the method is known and the parameter is in range.
func (s Selection) Validate() error {
	switch s.Method {
	case SelectionTopN:
		if s.Param < 0 || s.Param != math.Trunc(s.Param) {
			return fmt.Errorf("%w: top_n needs a non-negative integer, got %v", ErrInvalidInput, s.Param)
		}
	case SelectionRelativeThreshold:
		if !(s.Param > 0 && s.Param <= 1) {
			return fmt.Errorf("%w: relative_threshold needs a value in (0, 1], got %v", ErrInvalidInput, s.Param)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, s.Method)
	}
	return nil
}

// String returns "method(param)".
func (s Selection) String() string {
	return fmt.Sprintf("%s(%g)", s.Method, s.Param)
}

// ImageAnalysis holds the detections of one image sorted by descending weight,
// or records that the image could not be analysed.
//
// Detections never change after construction; the only mutable state is the
// per-selection cache of TopDetections results.
type ImageAnalysis struct {
	filename   string
	detections []Detection
	failure    error

	mu    sync.Mutex
	cache map[Selection][]Detection
}

// NewImageAnalysis stable-sorts detections by descending weight.
// Equal weights keep their detector order.
func NewImageAnalysis(filename string, detections []Detection) *ImageAnalysis {
	sorted := slices.Clone(detections)
	slices.SortStableFunc(sorted, func(a, b Detection) int {
		return cmp.Compare(b.Weight(), a.Weight())
	})
	return &ImageAnalysis{
		filename:   filename,
		detections: sorted,
		cache:      make(map[Selection][]Detection),
	}
}

// NewFailedAnalysis records that filename could not be analysed.
func NewFailedAnalysis(filename string, cause error) *ImageAnalysis {
	if cause == nil {
		cause = ErrAnalysisFailed
	}
	return &ImageAnalysis{
		filename: filename,
		failure:  cause,
		cache:    make(map[Selection][]Detection),
	}
}

// BuildImageAnalysis weights every raw detection against the frame.
// Detections with invalid geometry are dropped and returned separately;
// an invalid frame drops all of them.
func BuildImageAnalysis(raw RawAnalysis) (*ImageAnalysis, []DroppedDetection) {
	detections := make([]Detection, 0, len(raw.Detections))
	var dropped []DroppedDetection
	for _, rd := range raw.Detections {
		d, err := NewDetection(rd.Label, rd.BBox, raw.Frame)
		if err != nil {
			dropped = append(dropped, DroppedDetection{Raw: rd, Err: err})
			continue
		}
		detections = append(detections, d)
	}
	return NewImageAnalysis(raw.Path, detections), dropped
}

// Filename returns the image path this analysis belongs to.
func (a *ImageAnalysis) Filename() string { return a.filename }

// Failed reports whether the image could not be analysed.
func (a *ImageAnalysis) Failed() bool { return a.failure != nil }

// Err returns the analysis failure, or nil.
func (a *ImageAnalysis) Err() error { return a.failure }

// Detections returns a copy of the weight-sorted detections.
// It is nil for a failed analysis.
func (a *ImageAnalysis) Detections() []Detection {
	if a.failure != nil {
		return nil
	}
	return slices.Clone(a.detections)
}

// TopDetections returns the detections kept by the selection.
// A failed analysis yields an empty result for every method.
// Results are cached per selection for the lifetime of the analysis.
func (a *ImageAnalysis) TopDetections(sel Selection) ([]Detection, error) {
	if a.failure != nil {
		return []Detection{}, nil
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if cached, ok := a.cache[sel]; ok {
		return slices.Clone(cached), nil
	}

	var result []Detection
	switch sel.Method {
	case SelectionTopN:
		n := min(int(sel.Param), len(a.detections))
		result = slices.Clone(a.detections[:n])
	case SelectionRelativeThreshold:
		result = a.relativeThreshold(sel.Param)
	}

	a.cache[sel] = result
	return slices.Clone(result), nil
}

// relativeThreshold accumulates normalised weights in rank order until the
// running share reaches threshold. With a zero total every detection
// counts as an equal share.
func (a *ImageAnalysis) relativeThreshold(threshold float64) []Detection {
	if len(a.detections) == 0 {
		return []Detection{}
	}

	var total float64
	for _, d := range a.detections {
		total += d.Weight()
	}

	var acc float64
	result := make([]Detection, 0, len(a.detections))
	for _, d := range a.detections {
		if total > 0 {
			acc += d.Weight() / total
		} else {
			acc += 1 / float64(len(a.detections))
		}
		result = append(result, d)
		if acc >= threshold {
			break
		}
	}
	return result
}
