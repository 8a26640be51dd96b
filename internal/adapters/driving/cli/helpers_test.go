package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pikia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui"
	"github.com/custodia-labs/pikia/internal/connectors/filesystem"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/core/services"
)

// stubDetector reports the detections registered for an image base name.
type stubDetector struct {
	boxes map[string][]domain.RawDetection
}

func (d *stubDetector) Detect(_ context.Context, path string) (*domain.RawAnalysis, error) {
	dets, ok := d.boxes[filepath.Base(path)]
	if !ok {
		return nil, domain.ErrAnalysisFailed
	}
	return &domain.RawAnalysis{Path: path, Frame: domain.Frame{Width: 100, Height: 100}, Detections: dets}, nil
}

func (d *stubDetector) Name() string { return "stub" }
func (d *stubDetector) Close() error { return nil }

// stubArchiver records where the session was archived.
type stubArchiver struct {
	dir string
}

func (a *stubArchiver) Archive(dir string) (string, error) {
	a.dir = dir
	return filepath.Join(dir, "pikia.db.20260101_120000"), nil
}

// stubWatcher emits a fixed list of paths then closes.
type stubWatcher struct {
	paths []string
}

func (w *stubWatcher) Watch(_ context.Context, _ []string, _ bool) (<-chan string, error) {
	ch := make(chan string, len(w.paths))
	for _, p := range w.paths {
		ch <- p
	}
	close(ch)
	return ch, nil
}

func (w *stubWatcher) Close() error { return nil }

// testEnv backs the commands with an in-memory corpus shared by every
// workspace opened during one test.
type testEnv struct {
	store    *memory.CorpusStore
	detector *stubDetector
	archiver *stubArchiver
	watcher  *stubWatcher
	config   *memory.ConfigStore
	opened   []WorkspaceOptions
	imageDir string
}

func det(label string, x1, y1, x2, y2 float64) domain.RawDetection {
	return domain.RawDetection{Label: label, BBox: domain.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

// newTestEnv wires the CLI to in-memory services and writes three images:
// a.jpg holds a large cat and a small dog, b.jpg a dog, broken.jpg nothing
// the detector understands.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	resetCommands(t)

	env := &testEnv{
		store:    memory.NewCorpusStore(),
		archiver: &stubArchiver{},
		watcher:  &stubWatcher{},
		config:   memory.NewConfigStore(),
		imageDir: t.TempDir(),
		detector: &stubDetector{boxes: map[string][]domain.RawDetection{
			"a.jpg": {det("cat", 0, 0, 100, 100), det("dog", 40, 40, 60, 60)},
			"b.jpg": {det("dog", 10, 10, 90, 90)},
		}},
	}
	for _, name := range []string{"a.jpg", "b.jpg", "broken.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(env.imageDir, name), []byte("image:"+name), 0644))
	}

	SetSettingsService(services.NewSettingsService(env.config))
	SetWorkspaceFactory(env.open)
	t.Cleanup(func() {
		SetSettingsService(nil)
		SetWorkspaceFactory(nil)
	})
	return env
}

func (e *testEnv) open(_ context.Context, opts WorkspaceOptions) (*Workspace, error) {
	e.opened = append(e.opened, opts)
	settings := opts.Settings

	analysis := services.NewAnalysisService(
		filesystem.NewScanner(settings.Scan.Extensions), e.detector, e.store, settings.Selection)
	resolver := services.NewClusterResolver(e.store)
	var owner driving.ClusterResolver = resolver
	if opts.Resume {
		owner = nil
	}

	return &Workspace{
		Analysis:     analysis,
		Watch:        services.NewWatchService(e.watcher, e.store, analysis),
		Cluster:      resolver,
		Materializer: services.NewMaterializer(e.store, owner),
		Session:      services.NewSessionService(e.archiver, settings.Data.SessionsDir),
	}, nil
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetCommands restores every flag to its default, since cobra commands
// are package state shared by all tests, and stubs the terminal checks.
func resetCommands(t *testing.T) {
	t.Helper()

	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		resetFlags := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				require.NoError(t, sv.Replace(nil))
			} else {
				require.NoError(t, f.Value.Set(f.DefValue))
			}
			f.Changed = false
		}
		cmd.Flags().VisitAll(resetFlags)
		cmd.PersistentFlags().VisitAll(resetFlags)
		for _, sub := range cmd.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)

	origTerminal, origSelect := isTerminal, selectClusters
	isTerminal = func() bool { return false }
	selectClusters = func(context.Context, driving.ClusterResolver, tui.Options) (*tui.Result, error) {
		t.Fatal("selection UI opened unexpectedly")
		return nil, nil
	}
	t.Cleanup(func() {
		isTerminal, selectClusters = origTerminal, origSelect
	})
}
