package domain

import (
	"fmt"
	"math"
)

// Point is a position in pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// BBox is an axis-aligned rectangle (X1, Y1) - (X2, Y2) in pixel coordinates.
// A well-formed box has X1 < X2 and Y1 < Y2.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Frame is the pixel size of an image.
type Frame struct {
	Width  int
	Height int
}

// Weights holds the derived scores of a box against a frame.
type Weights struct {
	// Area is bbox area divided by frame area.
	Area float64

	// Centrality is 1 at the frame centre and 0 at a frame corner.
	Centrality float64

	// Total is Area * Centrality.
	Total float64
}

// Validate checks the frame has positive dimensions.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: frame %dx%d", ErrInvalidGeometry, f.Width, f.Height)
	}
	return nil
}

// Rect returns the frame as the box (0, 0, width, height).
func (f Frame) Rect() BBox {
	return BBox{X1: 0, Y1: 0, X2: float64(f.Width), Y2: float64(f.Height)}
}

// String returns "WxH".
func (f Frame) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Validate checks the box is finite and has positive extent on both axes.
func (b BBox) Validate() error {
	for _, v := range []float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bbox %v", ErrInvalidGeometry, b)
		}
	}
	if b.X1 >= b.X2 || b.Y1 >= b.Y2 {
		return fmt.Errorf("%w: degenerate bbox %v", ErrInvalidGeometry, b)
	}
	return nil
}

// ClampTo returns the box intersected with the frame rectangle.
// The result may be degenerate if the box lies entirely outside the frame.
func (b BBox) ClampTo(f Frame) BBox {
	w, h := float64(f.Width), float64(f.Height)
	return BBox{
		X1: math.Min(math.Max(b.X1, 0), w),
		Y1: math.Min(math.Max(b.Y1, 0), h),
		X2: math.Min(math.Max(b.X2, 0), w),
		Y2: math.Min(math.Max(b.Y2, 0), h),
	}
}

// Area returns (x2-x1) * (y2-y1).
func Area(b BBox) float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Center returns the midpoint of the box.
func Center(b BBox) Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Distance returns the euclidean distance between two points.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// AreaWeight returns the fraction of the frame covered by the box.
func AreaWeight(b BBox, f Frame) (float64, error) {
	if err := checkGeometry(b, f); err != nil {
		return 0, err
	}
	return Area(b) / Area(f.Rect()), nil
}

// CentralityWeight scores how close the box centre is to the frame centre.
// The distance is normalised by the centre-to-corner distance, the farthest
// any point of the frame can be from its centre, so a centre on a corner
// scores 0 and the score never leaves [0, 1].
func CentralityWeight(b BBox, f Frame) (float64, error) {
	if err := checkGeometry(b, f); err != nil {
		return 0, err
	}
	frameCenter := Center(f.Rect())
	maxDistance := Distance(Point{}, frameCenter)
	c := 1 - Distance(Center(b), frameCenter)/maxDistance
	return math.Max(0, c), nil
}

// ComputeWeights returns area, centrality and their product for the box.
func ComputeWeights(b BBox, f Frame) (Weights, error) {
	area, err := AreaWeight(b, f)
	if err != nil {
		return Weights{}, err
	}
	centrality, err := CentralityWeight(b, f)
	if err != nil {
		return Weights{}, err
	}
	return Weights{
		Area:       area,
		Centrality: centrality,
		Total:      area * centrality,
	}, nil
}

func checkGeometry(b BBox, f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return b.Validate()
}
