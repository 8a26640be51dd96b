package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/views/clusters"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/views/options"
	"github.com/custodia-labs/pikia/internal/core/domain"
)

// Options configures what the app asks for.
type Options struct {
	// Mode and Destination prefill the options form.
	Mode        domain.TransferMode
	Destination string

	// SelectOnly ends the app once clusters are picked.
	SelectOnly bool
}

// Result is the operator's answer.
type Result struct {
	Labels      []string
	Mode        domain.TransferMode
	Destination string
}

// App walks the operator through cluster selection and transfer options,
// following the Elm architecture. It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	opts   Options
	ctx    context.Context
	styles *styles.Styles

	clustersView *clusters.View
	optionsView  *options.View
	currentView  messages.ViewType

	labels []string
	result *Result

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		opts:         opts,
		ctx:          context.Background(),
		styles:       s,
		clustersView: clusters.NewView(s, km, ports.Cluster),
		optionsView:  options.NewView(s, km, opts.Mode, opts.Destination),
		currentView:  messages.ViewClusters,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.clustersView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("pikia - select clusters"),
		a.clustersView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewClusters:
			a.clustersView, cmd = a.clustersView.Update(msg)
		case messages.ViewOptions:
			a.optionsView, cmd = a.optionsView.Update(msg)
		}
		return a, cmd

	case messages.LabelsLoaded, messages.PreviewComputed:
		a.clustersView, cmd = a.clustersView.Update(msg)
		return a, cmd

	case messages.SelectionConfirmed:
		a.labels = msg.Labels
		if a.opts.SelectOnly {
			a.result = &Result{Labels: msg.Labels}
			return a, tea.Quit
		}
		a.currentView = messages.ViewOptions
		a.optionsView.SetClusters(len(msg.Labels))
		return a, a.optionsView.Init()

	case messages.OptionsConfirmed:
		a.result = &Result{
			Labels:      a.labels,
			Mode:        msg.Mode,
			Destination: msg.Destination,
		}
		return a, tea.Quit

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to the active view
	switch a.currentView {
	case messages.ViewClusters:
		a.clustersView, cmd = a.clustersView.Update(msg)
	case messages.ViewOptions:
		a.optionsView, cmd = a.optionsView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewOptions:
		return a.optionsView.View()
	default:
		return a.clustersView.View()
	}
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.clustersView.SetDimensions(width, height)
	a.optionsView.SetDimensions(width, height)
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Result returns the operator's answer. ok is false when the operator quit
// before confirming.
func (a *App) Result() (result *Result, ok bool) {
	return a.result, a.result != nil
}
