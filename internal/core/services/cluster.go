package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure ClusterResolver implements the interface.
var _ driving.ClusterResolver = (*ClusterResolver)(nil)

// ClusterResolver drives one cluster selection session.
//
// Browse previews never write. Commit assigns every claimed file its
// highest-weight selected label; committing again reassigns only the files
// the new selection claims. Finish closes the session.
type ClusterResolver struct {
	store driven.CorpusStore

	mu    sync.Mutex
	phase driving.Phase
}

// NewClusterResolver creates a resolver in the browse phase.
func NewClusterResolver(store driven.CorpusStore) *ClusterResolver {
	return &ClusterResolver{store: store, phase: driving.PhaseBrowse}
}

// Labels returns labels by descending file count.
func (r *ClusterResolver) Labels(ctx context.Context) ([]domain.LabelCount, error) {
	counts, err := r.store.LabelFrequency(ctx)
	if err != nil {
		return nil, fmt.Errorf("label frequency: %w", err)
	}
	return counts, nil
}

// Preview reports how many files the tentative selection would claim.
func (r *ClusterResolver) Preview(ctx context.Context, labels []string) (*driving.ClusterPreview, error) {
	if r.Phase() == driving.PhaseTerminal {
		return nil, fmt.Errorf("%w: preview after finish", domain.ErrPhase)
	}

	best, err := r.store.BestLabelAmong(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("best labels: %w", err)
	}
	total, err := r.store.TotalFileCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("file count: %w", err)
	}

	return &driving.ClusterPreview{
		Affected: len(best),
		Total:    total,
		PerLabel: countByLabel(best),
	}, nil
}

// Commit writes final labels for every file the selection claims.
func (r *ClusterResolver) Commit(ctx context.Context, labels []string) (*driving.CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == driving.PhaseTerminal {
		return nil, fmt.Errorf("%w: commit after finish", domain.ErrPhase)
	}
	if len(labels) == 0 {
		return nil, domain.ErrNoSelection
	}

	best, err := r.store.BestLabelAmong(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("best labels: %w", err)
	}
	if err := r.store.CommitFinalLabels(ctx, domain.AssignmentsFrom(best)); err != nil {
		return nil, fmt.Errorf("commit final labels: %w", err)
	}

	r.phase = driving.PhaseCommitted
	result := &driving.CommitResult{Assigned: len(best), Clusters: countByLabel(best)}
	logger.Info("Committed %d files into %d clusters", result.Assigned, len(result.Clusters))
	return result, nil
}

// Reset drops unprocessed final labels so a fresh selection starts clean.
func (r *ClusterResolver) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == driving.PhaseTerminal {
		return fmt.Errorf("%w: reset after finish", domain.ErrPhase)
	}
	if err := r.store.ResetFinalLabels(ctx); err != nil {
		return fmt.Errorf("reset final labels: %w", err)
	}
	r.phase = driving.PhaseBrowse
	logger.Debug("Final labels reset")
	return nil
}

// Finish ends the session.
func (r *ClusterResolver) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.phase {
	case driving.PhaseBrowse:
		return fmt.Errorf("%w: finish before commit", domain.ErrPhase)
	case driving.PhaseTerminal:
		return nil
	}
	r.phase = driving.PhaseTerminal
	return nil
}

// Phase returns the current session phase.
func (r *ClusterResolver) Phase() driving.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func countByLabel(best []domain.BestLabel) map[string]int {
	counts := make(map[string]int)
	for _, b := range best {
		counts[b.LabelName]++
	}
	return counts
}
