// Package domain defines the core business entities for pikia.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - BBox, Frame: rectangle geometry and the weight calculator
//   - Detection: one labelled region with its derived weight
//   - ImageAnalysis: the ranked detections for one image
//   - File, Label, FileLabelWeight: the persisted corpus model
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
