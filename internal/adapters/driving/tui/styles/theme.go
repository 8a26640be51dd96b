// Package styles holds the colours and lipgloss styles of the selection UI.
package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Text      lipgloss.Color
	Dim       lipgloss.Color
	Positive  lipgloss.Color
	Caution   lipgloss.Color
	Negative  lipgloss.Color
	Frame     lipgloss.Color
	BarFill   lipgloss.Color
}

// DefaultTheme returns the colour palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#E07A5F"), // terracotta
		Highlight: lipgloss.Color("#81B29A"), // sage
		Text:      lipgloss.Color("#F4F1DE"),
		Dim:       lipgloss.Color("#8D8A7F"),
		Positive:  lipgloss.Color("#A7C957"),
		Caution:   lipgloss.Color("#F2CC8F"),
		Negative:  lipgloss.Color("#D1495B"),
		Frame:     lipgloss.Color("#5C5B57"),
		BarFill:   lipgloss.Color("#2B2A28"),
	}
}

// PlainTheme leaves every colour to the terminal.
func PlainTheme() *Theme {
	return &Theme{}
}

// Styles are the lipgloss styles the views render with.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style

	// Selected marks the active choice of a radio group.
	Selected lipgloss.Style

	// Checked marks a ticked cluster.
	Checked lipgloss.Style

	// Cursor marks the row under the cursor.
	Cursor lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles builds styles from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Highlight).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Dim),
		Help:     fg(theme.Dim),

		Selected: fg(theme.Accent).Bold(true).Underline(true),
		Checked:  fg(theme.Positive),
		Cursor:   fg(theme.Highlight).Bold(true),

		Success: fg(theme.Positive),
		Warning: fg(theme.Caution),
		Error:   fg(theme.Negative).Bold(true),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),

		StatusBar: fg(theme.Dim).
			Background(theme.BarFill).
			Padding(0, 1),
	}
}

// DefaultStyles returns the styles for the current terminal. NO_COLOR
// selects PlainTheme.
func DefaultStyles() *Styles {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NewStyles(PlainTheme())
	}
	return NewStyles(DefaultTheme())
}

// Theme returns the palette these styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
