// Package messages defines the messages exchanged between TUI views.
package messages

import (
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// ViewType identifies a TUI step.
type ViewType int

const (
	// ViewClusters is the cluster checklist.
	ViewClusters ViewType = iota
	// ViewOptions asks for transfer mode and destination.
	ViewOptions
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewClusters:
		return "clusters"
	case ViewOptions:
		return "options"
	default:
		return "unknown"
	}
}

// ViewChanged requests a switch to another view.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the operator abandoned the selection.
type Quit struct{}

// LabelsLoaded carries the labels offered for selection.
type LabelsLoaded struct {
	Labels []domain.LabelCount
	Err    error
}

// PreviewComputed carries the live feedback for a tentative selection.
// Seq orders previews; a view drops any preview older than its last request.
type PreviewComputed struct {
	Seq     int
	Preview *driving.ClusterPreview
	Err     error
}

// SelectionConfirmed carries the clusters the operator settled on.
type SelectionConfirmed struct {
	Labels []string
}

// OptionsConfirmed carries the chosen transfer options.
type OptionsConfirmed struct {
	Mode        domain.TransferMode
	Destination string
}
