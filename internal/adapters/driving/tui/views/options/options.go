// Package options provides the transfer options form for the TUI.
package options

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pikia/internal/core/domain"
)

// field identifies the focused form field.
type field int

const (
	fieldMode field = iota
	fieldDestination
)

// View asks whether to keep originals and where to place the clusters.
type View struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	mode        domain.TransferMode
	destination *input.PathInput
	focus       field
	clusters    int
	err         string
	width       int
	height      int
}

// NewView creates the options form prefilled with mode and destination.
func NewView(s *styles.Styles, km *keymap.KeyMap, mode domain.TransferMode, destination string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if !mode.IsValid() {
		mode = domain.TransferCopy
	}

	dest := input.NewPathInput(s, "Destination:", "directory for the output images")
	dest.SetValue(destination)

	return &View{
		styles:      s,
		keymap:      km,
		mode:        mode,
		destination: dest,
		width:       80,
		height:      24,
	}
}

// Init focuses the mode toggle.
func (v *View) Init() tea.Cmd {
	v.focus = fieldMode
	v.destination.Blur()
	v.err = ""
	return nil
}

// SetClusters records how many clusters were selected, for the header.
func (v *View) SetClusters(n int) {
	v.clusters = n
}

// Update handles messages for the form.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	// Cursor blink and similar
	var cmd tea.Cmd
	v.destination, cmd = v.destination.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Confirm):
		dest := strings.TrimSpace(v.destination.Value())
		if dest == "" {
			v.err = "Enter a destination directory"
			return v, v.focusField(fieldDestination)
		}
		mode := v.mode
		return v, func() tea.Msg {
			return messages.OptionsConfirmed{Mode: mode, Destination: dest}
		}

	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewClusters}
		}

	case keymap.Matches(k, v.keymap.NextField):
		if v.focus == fieldMode {
			return v, v.focusField(fieldDestination)
		}
		return v, v.focusField(fieldMode)
	}

	if v.focus == fieldMode {
		if keymap.Matches(k, v.keymap.SwitchMode) {
			v.toggleMode()
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.destination, cmd = v.destination.Update(msg)
	v.err = ""
	return v, cmd
}

func (v *View) focusField(f field) tea.Cmd {
	v.focus = f
	if f == fieldDestination {
		return v.destination.Focus()
	}
	v.destination.Blur()
	return nil
}

func (v *View) toggleMode() {
	if v.mode == domain.TransferCopy {
		v.mode = domain.TransferMove
	} else {
		v.mode = domain.TransferCopy
	}
}

// View renders the form.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Clustering options"))
	b.WriteString("\n")
	if v.clusters > 0 {
		b.WriteString(v.styles.Muted.Render(pluralClusters(v.clusters) + " selected"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cursor := "  "
	if v.focus == fieldMode {
		cursor = v.styles.Cursor.Render("> ")
	}
	b.WriteString(cursor + v.styles.Subtitle.Render("Keep original files? "))
	for _, m := range domain.AllTransferModes() {
		opt := "( ) " + m.Description()
		if m == v.mode {
			opt = v.styles.Checked.Render("(•) " + m.Description())
		}
		b.WriteString("\n    " + opt)
	}
	b.WriteString("\n\n")

	cursor = "  "
	if v.focus == fieldDestination {
		cursor = v.styles.Cursor.Render("> ")
	}
	b.WriteString(cursor + v.destination.View())
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("    An 'output' directory will be created inside"))
	b.WriteString("\n")

	if v.err != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(v.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[tab] Next field  [←/→] Copy/Move  [Enter] Start  [Esc] Back"))
	return b.String()
}

func pluralClusters(n int) string {
	if n == 1 {
		return "1 cluster"
	}
	return fmt.Sprintf("%d clusters", n)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.destination.SetWidth(width - 4)
}

// Mode returns the chosen transfer mode.
func (v *View) Mode() domain.TransferMode {
	return v.mode
}

// Destination returns the entered destination.
func (v *View) Destination() string {
	return v.destination.Value()
}
