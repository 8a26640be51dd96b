// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Bar shows how many files the tentative selection claims, next to
// keybinding hints.
type Bar struct {
	styles   *styles.Styles
	state    State
	message  string
	affected int
	total    int
	hints    []key.Binding
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		state:  StateLoading,
		hints:  km.ShortHelp(),
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateReady:
		if s.message != "" {
			return s.styles.Warning.Render(s.message)
		}
	}
	return s.styles.Normal.Render(s.Affected())
}

func (s *Bar) renderRight() string {
	hints := make([]string, 0, len(s.hints))
	for _, b := range s.hints {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// Affected renders the claimed file count, e.g. "3/10 affected".
func (s *Bar) Affected() string {
	return fmt.Sprintf("%d/%d affected", s.affected, s.total)
}

// SetPreview records the outcome of a selection preview.
func (s *Bar) SetPreview(affected, total int) {
	s.affected = affected
	s.total = total
	s.state = StateReady
	s.message = ""
}

// SetError shows an error in place of the preview.
func (s *Bar) SetError(err error) {
	s.state = StateError
	s.message = err.Error()
}

// SetHints replaces the keybinding hints.
func (s *Bar) SetHints(bindings []key.Binding) {
	s.hints = bindings
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a notice shown instead of the preview.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
