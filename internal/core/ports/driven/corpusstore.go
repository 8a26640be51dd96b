package driven

import (
	"context"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// CorpusStore persists files, labels and their weighted associations,
// and answers the ranking queries that drive cluster selection.
// Backed by SQLite; an in-memory implementation exists for tests.
//
// Every method except CommitFinalLabels commits per item, so an aborted
// batch leaves no half-written association behind.
type CorpusStore interface {
	// RegisterFiles inserts paths that are not yet known.
	// Returns the number of newly inserted files. Duplicates are ignored.
	RegisterFiles(ctx context.Context, paths []string) (int, error)

	// RecordDetections stores the selected top detections of each analysis.
	// Labels are upserted by name; an existing (file, label) weight is kept.
	// Returns ErrReferentialIntegrity if an analysis refers to an unregistered file.
	RecordDetections(ctx context.Context, analyses []*domain.ImageAnalysis, sel domain.Selection) error

	// LabelFrequency returns labels ordered by descending distinct file count,
	// then by name.
	LabelFrequency(ctx context.Context) ([]domain.LabelCount, error)

	// BestLabelAmong returns, for each file with at least one candidate label,
	// the candidate with the highest weight. Ties go to the lowest label ID.
	// Rows are ordered by file ID. An empty candidate set yields no rows.
	BestLabelAmong(ctx context.Context, labels []string) ([]domain.BestLabel, error)

	// CommitFinalLabels sets the final label of every listed file atomically.
	// Each pair must reference a recorded (file, label) weight.
	CommitFinalLabels(ctx context.Context, pairs []domain.FinalAssignment) error

	// ResetFinalLabels clears final labels of files not yet processed.
	ResetFinalLabels(ctx context.Context) error

	// FilesWithFinalLabel returns every file that has a final label, by file ID.
	FilesWithFinalLabel(ctx context.Context) ([]domain.FinalFile, error)

	// MarkProcessed flags a materialized file so later runs skip it.
	MarkProcessed(ctx context.Context, fileID int64) error

	// TotalFileCount returns the number of registered files.
	TotalFileCount(ctx context.Context) (int, error)

	// FileByPath retrieves a registered file.
	FileByPath(ctx context.Context, path string) (*domain.File, error)

	// Labels returns all labels ordered by ID.
	Labels(ctx context.Context) ([]domain.Label, error)
}
