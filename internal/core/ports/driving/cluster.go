package driving

import (
	"context"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// Phase is the state of a cluster resolution session.
type Phase int

const (
	// PhaseBrowse allows previews of tentative label selections.
	PhaseBrowse Phase = iota
	// PhaseCommitted means final labels have been written.
	PhaseCommitted
	// PhaseTerminal means resolution is over and materialization may proceed.
	PhaseTerminal
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBrowse:
		return "browse"
	case PhaseCommitted:
		return "committed"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ClusterResolver turns an operator's label selection into final labels.
type ClusterResolver interface {
	// Labels returns labels by descending file count, for the selection menu.
	Labels(ctx context.Context) ([]domain.LabelCount, error)

	// Preview computes which files a tentative selection would claim.
	// It never writes to the store.
	Preview(ctx context.Context, labels []string) (*ClusterPreview, error)

	// Commit writes the best candidate label of every claimed file.
	Commit(ctx context.Context, labels []string) (*CommitResult, error)

	// Reset clears the final labels of files not yet materialized and
	// returns the session to browsing.
	Reset(ctx context.Context) error

	// Finish ends the session. Requires a prior commit.
	Finish() error

	// Phase returns the current session phase.
	Phase() Phase
}

// ClusterPreview is the live feedback for a tentative selection.
type ClusterPreview struct {
	// Affected is the number of distinct files claimed.
	Affected int

	// Total is the number of registered files.
	Total int

	// PerLabel counts claimed files per selected label.
	PerLabel map[string]int
}

// CommitResult summarises a commit.
type CommitResult struct {
	// Assigned is the number of files given a final label.
	Assigned int

	// Clusters counts assigned files per label.
	Clusters map[string]int
}
