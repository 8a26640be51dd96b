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

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService feeds newly arrived images through registration and analysis.
type WatchService struct {
	watcher  driven.FileWatcher
	store    driven.CorpusStore
	analysis *AnalysisService
}

// NewWatchService creates a watch service.
func NewWatchService(watcher driven.FileWatcher, store driven.CorpusStore, analysis *AnalysisService) *WatchService {
	return &WatchService{watcher: watcher, store: store, analysis: analysis}
}

// Run watches dirs until ctx is done. Cancellation is a normal stop.
func (s *WatchService) Run(
	ctx context.Context,
	dirs []string,
	recursive bool,
	onReport func(path string, report *driving.AnalysisReport),
) error {
	if len(dirs) == 0 {
		return fmt.Errorf("%w: no directories to watch", domain.ErrInvalidInput)
	}

	paths, err := s.watcher.Watch(ctx, dirs, recursive)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer s.watcher.Close()

	logger.Section("Watch")
	logger.Info("Watching %d directories", len(dirs))

	for path := range paths {
		if _, err := s.store.RegisterFiles(ctx, []string{path}); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("register %s: %v", path, err)
			continue
		}

		report, err := s.analysis.Analyze(ctx, []string{path}, nil)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}
		if onReport != nil {
			onReport(path, report)
		}
	}

	logger.Info("Stopped watching")
	return nil
}
