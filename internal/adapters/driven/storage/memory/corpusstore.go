package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

type fileLabelKey struct {
	fileID  int64
	labelID int64
}

// CorpusStore is an in-memory implementation of driven.CorpusStore.
// It mirrors the SQLite constraints with explicit checks.
type CorpusStore struct {
	mu sync.RWMutex

	files        map[int64]*domain.File
	filesByPath  map[string]int64
	labels       map[int64]domain.Label
	labelsByName map[string]int64
	weights      map[fileLabelKey]float64

	nextFileID  int64
	nextLabelID int64
}

// NewCorpusStore creates a new in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		files:        make(map[int64]*domain.File),
		filesByPath:  make(map[string]int64),
		labels:       make(map[int64]domain.Label),
		labelsByName: make(map[string]int64),
		weights:      make(map[fileLabelKey]float64),
	}
}

// RegisterFiles inserts paths that are not yet known.
func (s *CorpusStore) RegisterFiles(_ context.Context, paths []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, path := range paths {
		if path == "" {
			return inserted, fmt.Errorf("%w: empty file path", domain.ErrInvalidInput)
		}
		if _, ok := s.filesByPath[path]; ok {
			continue
		}
		s.nextFileID++
		s.files[s.nextFileID] = &domain.File{ID: s.nextFileID, Path: path}
		s.filesByPath[path] = s.nextFileID
		inserted++
	}
	return inserted, nil
}

// RecordDetections stores the selected detections of each analysis.
func (s *CorpusStore) RecordDetections(
	_ context.Context,
	analyses []*domain.ImageAnalysis,
	sel domain.Selection,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, analysis := range analyses {
		if analysis == nil || analysis.Failed() {
			continue
		}
		top, err := analysis.TopDetections(sel)
		if err != nil {
			return fmt.Errorf("selecting detections for %s: %w", analysis.Filename(), err)
		}
		fileID, ok := s.filesByPath[analysis.Filename()]
		if !ok {
			return fmt.Errorf("recording detections for %s: %w: file is not registered",
				analysis.Filename(), domain.ErrReferentialIntegrity)
		}
		for _, d := range top {
			labelID := s.upsertLabel(d.Label())
			key := fileLabelKey{fileID: fileID, labelID: labelID}
			if _, exists := s.weights[key]; !exists {
				s.weights[key] = d.Weight()
			}
		}
	}
	return nil
}

func (s *CorpusStore) upsertLabel(name string) int64 {
	if id, ok := s.labelsByName[name]; ok {
		return id
	}
	s.nextLabelID++
	s.labels[s.nextLabelID] = domain.Label{ID: s.nextLabelID, Name: name}
	s.labelsByName[name] = s.nextLabelID
	return s.nextLabelID
}

// LabelFrequency returns labels by descending distinct file count, then name.
func (s *CorpusStore) LabelFrequency(_ context.Context) ([]domain.LabelCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make(map[int64]int)
	for key := range s.weights {
		files[key.labelID]++
	}

	counts := make([]domain.LabelCount, 0, len(files))
	for labelID, n := range files {
		counts = append(counts, domain.LabelCount{Label: s.labels[labelID], Files: n})
	}
	slices.SortFunc(counts, func(a, b domain.LabelCount) int {
		if c := cmp.Compare(b.Files, a.Files); c != 0 {
			return c
		}
		return cmp.Compare(a.Label.Name, b.Label.Name)
	})
	return counts, nil
}

// BestLabelAmong reduces each file's candidate weights to the maximum.
// Ties go to the lowest label ID.
func (s *CorpusStore) BestLabelAmong(_ context.Context, labels []string) ([]domain.BestLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make(map[int64]struct{}, len(labels))
	for _, name := range labels {
		if id, ok := s.labelsByName[name]; ok {
			candidates[id] = struct{}{}
		}
	}

	bestByFile := make(map[int64]domain.BestLabel)
	for key, weight := range s.weights {
		if _, ok := candidates[key.labelID]; !ok {
			continue
		}
		current, seen := bestByFile[key.fileID]
		if seen && (weight < current.Weight || (weight == current.Weight && key.labelID > current.LabelID)) {
			continue
		}
		bestByFile[key.fileID] = domain.BestLabel{
			FileID:    key.fileID,
			FilePath:  s.files[key.fileID].Path,
			LabelID:   key.labelID,
			LabelName: s.labels[key.labelID].Name,
			Weight:    weight,
		}
	}

	best := make([]domain.BestLabel, 0, len(bestByFile))
	for _, b := range bestByFile {
		best = append(best, b)
	}
	slices.SortFunc(best, func(a, b domain.BestLabel) int {
		return cmp.Compare(a.FileID, b.FileID)
	})
	return best, nil
}

// CommitFinalLabels validates every pair before applying any of them.
func (s *CorpusStore) CommitFinalLabels(_ context.Context, pairs []domain.FinalAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		if _, ok := s.files[p.FileID]; !ok {
			return fmt.Errorf("%w: file %d does not exist", domain.ErrReferentialIntegrity, p.FileID)
		}
		if _, ok := s.weights[fileLabelKey{fileID: p.FileID, labelID: p.LabelID}]; !ok {
			return fmt.Errorf("%w: file %d has no weight for label %d",
				domain.ErrReferentialIntegrity, p.FileID, p.LabelID)
		}
	}

	for _, p := range pairs {
		labelID := p.LabelID
		s.files[p.FileID].FinalLabelID = &labelID
	}
	return nil
}

// ResetFinalLabels clears final labels of unprocessed files.
func (s *CorpusStore) ResetFinalLabels(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.files {
		if !f.Processed {
			f.FinalLabelID = nil
		}
	}
	return nil
}

// FilesWithFinalLabel returns files with a final label, by file ID.
func (s *CorpusStore) FilesWithFinalLabel(_ context.Context) ([]domain.FinalFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []domain.FinalFile
	for _, f := range s.files {
		if f.FinalLabelID == nil {
			continue
		}
		files = append(files, domain.FinalFile{
			FileID:    f.ID,
			FilePath:  f.Path,
			LabelName: s.labels[*f.FinalLabelID].Name,
			Processed: f.Processed,
		})
	}
	slices.SortFunc(files, func(a, b domain.FinalFile) int {
		return cmp.Compare(a.FileID, b.FileID)
	})
	return files, nil
}

// MarkProcessed flags a materialized file.
func (s *CorpusStore) MarkProcessed(_ context.Context, fileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.FinalLabelID == nil {
		return fmt.Errorf("%w: file %d has no final label", domain.ErrReferentialIntegrity, fileID)
	}
	f.Processed = true
	return nil
}

// TotalFileCount returns the number of registered files.
func (s *CorpusStore) TotalFileCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files), nil
}

// FileByPath retrieves a registered file.
func (s *CorpusStore) FileByPath(_ context.Context, path string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.filesByPath[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f := *s.files[id]
	if f.FinalLabelID != nil {
		labelID := *f.FinalLabelID
		f.FinalLabelID = &labelID
	}
	return &f, nil
}

// Labels returns all labels ordered by ID.
func (s *CorpusStore) Labels(_ context.Context) ([]domain.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]domain.Label, 0, len(s.labels))
	for _, l := range s.labels {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, func(a, b domain.Label) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return labels, nil
}
