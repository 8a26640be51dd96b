package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Workspace bundles the services bound to one working database.
type Workspace struct {
	Analysis     driving.AnalysisService
	Watch        driving.WatchService
	Cluster      driving.ClusterResolver
	Materializer driving.Materializer
	Session      driving.SessionService

	// Closers are released in reverse order by Close.
	Closers []io.Closer
}

// Close releases the workspace resources.
func (w *Workspace) Close() error {
	var errs []error
	for i := len(w.Closers) - 1; i >= 0; i-- {
		if err := w.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WorkspaceOptions tells the factory what a command needs.
type WorkspaceOptions struct {
	// Settings are the effective settings, flag overrides applied.
	Settings *domain.AppSettings

	// NeedDetector builds the configured detector.
	NeedDetector bool

	// CacheSidecars stores vision detections next to each image.
	CacheSidecars bool

	// Resume lets the materializer act on final labels committed by an
	// earlier invocation instead of waiting for a commit in this one.
	Resume bool
}

// WorkspaceFactory opens a workspace.
type WorkspaceFactory func(ctx context.Context, opts WorkspaceOptions) (*Workspace, error)

func openWorkspace(cmd *cobra.Command, opts WorkspaceOptions) (*Workspace, error) {
	if workspaceFactory == nil {
		return nil, errors.New("workspace not configured")
	}
	ws, err := workspaceFactory(cmd.Context(), opts)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	return ws, nil
}

func closeWorkspace(ws *Workspace) {
	if err := ws.Close(); err != nil {
		logger.Warn("closing workspace: %v", err)
	}
}
