package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// errSelectionCancelled is returned when the operator leaves the selection UI.
var errSelectionCancelled = errors.New("selection cancelled")

// selectClusters runs the interactive selection. Replaced in tests.
var selectClusters = runSelectionUI

// isTerminal reports whether stdin and stdout are both terminals. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// interactive reports whether cmd may open the selection UI.
func interactive(cmd *cobra.Command) bool {
	if noTUI, err := cmd.Flags().GetBool(flagNoTUI); err == nil && noTUI {
		return false
	}
	return isTerminal()
}

func runSelectionUI(ctx context.Context, resolver driving.ClusterResolver, opts tui.Options) (result *tui.Result, err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(resolver), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	result, ok := app.Result()
	if !ok {
		return nil, errSelectionCancelled
	}
	return result, nil
}
