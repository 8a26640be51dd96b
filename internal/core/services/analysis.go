package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisService runs detection over registered images and records the
// selected detections in the corpus store.
type AnalysisService struct {
	scanner   driven.FileScanner
	detector  driven.Detector
	store     driven.CorpusStore
	selection domain.Selection
}

// NewAnalysisService creates an analysis service.
// The detector may be nil when only Register is used.
func NewAnalysisService(
	scanner driven.FileScanner,
	detector driven.Detector,
	store driven.CorpusStore,
	selection domain.Selection,
) *AnalysisService {
	return &AnalysisService{
		scanner:   scanner,
		detector:  detector,
		store:     store,
		selection: selection,
	}
}

// Register scans dirs for images and registers them in the corpus.
func (s *AnalysisService) Register(ctx context.Context, dirs []string, recursive bool) (*driving.ScanResult, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no directories to scan", domain.ErrInvalidInput)
	}

	logger.Section("Scan")
	paths, err := s.scanner.Scan(ctx, dirs, recursive)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	logger.Info("Found %d images in %d directories", len(paths), len(dirs))

	registered, err := s.store.RegisterFiles(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("register files: %w", err)
	}
	logger.Debug("Registered %d new files", registered)

	return &driving.ScanResult{Paths: paths, Registered: registered}, nil
}

// Analyze detects objects in each image and records the selected detections.
// Each image is recorded independently; cancellation stops between images.
func (s *AnalysisService) Analyze(
	ctx context.Context,
	paths []string,
	progress driving.ProgressFunc,
) (*driving.AnalysisReport, error) {
	if s.detector == nil {
		return nil, fmt.Errorf("%w: detector not configured", domain.ErrInvalidInput)
	}
	if err := s.selection.Validate(); err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	logger.Section("Analysis")
	logger.Info("Analysing %d images with %s, keeping %s", len(paths), s.detector.Name(), s.selection)

	report := &driving.AnalysisReport{}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn("Analysis cancelled after %d of %d images", report.Processed, len(paths))
			return report, err
		}

		analysis, dropped, err := s.analyzeOne(ctx, path)
		if err != nil && ctx.Err() != nil {
			// Interrupted mid-request; the image was not analysed
			return report, ctx.Err()
		}

		report.Processed++
		report.Dropped += dropped

		if err == nil {
			err = s.store.RecordDetections(ctx, []*domain.ImageAnalysis{analysis}, s.selection)
			if err == nil {
				report.Recorded++
			}
		}
		if err != nil {
			logger.Error("%s: %v", path, err)
			report.Failed = append(report.Failed, driving.FileFailure{Path: path, Err: err})
		}

		if progress != nil {
			progress(i+1, len(paths), path)
		}
	}

	logger.Info("Analysis done: %d recorded, %d failed, %d detections dropped",
		report.Recorded, len(report.Failed), report.Dropped)
	return report, nil
}

// analyzeOne returns the weighted analysis of one image and the number of
// detections dropped for invalid geometry.
func (s *AnalysisService) analyzeOne(ctx context.Context, path string) (*domain.ImageAnalysis, int, error) {
	raw, err := s.detector.Detect(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrAnalysisFailed) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
		}
		return nil, 0, err
	}

	// Store rows are keyed by the registered path, not whatever the detector echoes
	raw.Path = path
	analysis, dropped := domain.BuildImageAnalysis(*raw)
	for _, d := range dropped {
		logger.Warn("%s: dropped %q: %v", path, d.Raw.Label, d.Err)
	}
	logger.Debug("%s: %d detections, %d dropped", path, len(analysis.Detections()), len(dropped))

	return analysis, len(dropped), nil
}

// FailureSummary joins per-file failures into one error, or nil.
func FailureSummary(failures []driving.FileFailure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
	return errors.Join(errs...)
}
