package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidGeometry indicates a degenerate image frame or bounding box.
	// The affected detection is dropped from ranking; the image is kept.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrAnalysisFailed indicates an image could not be read or identified.
	// It is recorded per file and never aborts a batch.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrUnsupportedMethod indicates an unknown detection selection method.
	ErrUnsupportedMethod = errors.New("unsupported selection method")

	// Store Errors.

	// ErrReferentialIntegrity indicates a write referencing rows that do not exist,
	// such as a weight for an unregistered file or an unknown label.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// Clustering Errors.

	// ErrNoSelection indicates an empty label selection where one is required.
	ErrNoSelection = errors.New("no labels selected")

	// ErrPhase indicates an operation was called in the wrong resolution phase.
	ErrPhase = errors.New("invalid resolution phase")

	// ErrMaterialization indicates a copy or move failed for a single file.
	// The file stays unprocessed and is retried on the next run.
	ErrMaterialization = errors.New("materialization failed")
)
