// Command pikia sorts images into folders by the objects they contain.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/pikia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pikia/internal/adapters/driven/detector"
	"github.com/custodia-labs/pikia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pikia/internal/adapters/driving/cli"
	"github.com/custodia-labs/pikia/internal/connectors/filesystem"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/core/services"
	"github.com/custodia-labs/pikia/internal/logger"
)

// watchSettle is how long a new file must stay unchanged before analysis.
const watchSettle = 500 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return err
	}
	prompts, err := file.NewPromptStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: locating prompts: %v\n", err)
		return err
	}

	cli.SetSettingsService(services.NewSettingsService(configStore))
	cli.SetWorkspaceFactory(newWorkspaceFactory(prompts))

	// cobra has already printed the error
	return cli.Execute(ctx)
}

// newWorkspaceFactory opens the sqlite working database and builds the
// services around it.
func newWorkspaceFactory(prompts *file.PromptStore) cli.WorkspaceFactory {
	return func(_ context.Context, opts cli.WorkspaceOptions) (*cli.Workspace, error) {
		settings := opts.Settings

		store, err := sqlite.NewStore(settings.Data.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		closers := []io.Closer{store}
		corpus := store.CorpusStore()

		var det driven.Detector
		if opts.NeedDetector {
			det, err = detector.Create(&settings.Detector, detector.Options{
				Prompts:       prompts,
				CacheSidecars: opts.CacheSidecars,
			})
			if err != nil {
				store.Close()
				return nil, err
			}
			closers = append(closers, det)
			logger.Debug("Detector: %s", det.Name())
		}
		analysis := services.NewAnalysisService(
			filesystem.NewScanner(settings.Scan.Extensions), det, corpus, settings.Selection)

		resolver := services.NewClusterResolver(corpus)
		var owner driving.ClusterResolver = resolver
		if opts.Resume {
			owner = nil
		}

		return &cli.Workspace{
			Analysis:     analysis,
			Watch:        services.NewWatchService(filesystem.NewWatcher(settings.Scan.Extensions, watchSettle), corpus, analysis),
			Cluster:      resolver,
			Materializer: services.NewMaterializer(corpus, owner),
			Session:      services.NewSessionService(store, settings.Data.SessionsDir),
			Closers:      closers,
		}, nil
	}
}
