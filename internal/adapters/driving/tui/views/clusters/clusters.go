// Package clusters provides the cluster checklist view for the TUI.
// Every toggle recomputes how many files the ticked clusters would claim.
package clusters

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pikia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
)

// chromeLines is the number of rows taken by title, spacing and status bar.
const chromeLines = 6

// View is the cluster checklist.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	resolver driving.ClusterResolver
	ctx      context.Context
	status   *status.Bar

	labels   []domain.LabelCount
	selected map[string]bool
	cursor   int
	offset   int
	preview  *driving.ClusterPreview
	seq      int
	loading  bool

	width  int
	height int
}

// NewView creates a cluster checklist backed by resolver.
func NewView(s *styles.Styles, km *keymap.KeyMap, resolver driving.ClusterResolver) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.ClustersHelp())

	return &View{
		styles:   s,
		keymap:   km,
		resolver: resolver,
		ctx:      context.Background(),
		status:   bar,
		selected: make(map[string]bool),
		width:    80,
		height:   24,
	}
}

// SetContext sets the context used for store queries.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the labels and the empty-selection preview.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return tea.Batch(v.loadLabels(), v.requestPreview())
}

func (v *View) loadLabels() tea.Cmd {
	ctx, resolver := v.ctx, v.resolver
	return func() tea.Msg {
		labels, err := resolver.Labels(ctx)
		return messages.LabelsLoaded{Labels: labels, Err: err}
	}
}

// requestPreview asks for a preview of the current selection. Earlier
// requests still in flight are superseded.
func (v *View) requestPreview() tea.Cmd {
	v.seq++
	seq, ctx, resolver, labels := v.seq, v.ctx, v.resolver, v.Selected()
	return func() tea.Msg {
		preview, err := resolver.Preview(ctx, labels)
		return messages.PreviewComputed{Seq: seq, Preview: preview, Err: err}
	}
}

// Update handles messages for the checklist.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.LabelsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.status.SetError(msg.Err)
			return v, nil
		}
		v.labels = msg.Labels
		v.cursor = 0
		v.offset = 0
		return v, nil

	case messages.PreviewComputed:
		if msg.Seq != v.seq {
			return v, nil
		}
		if msg.Err != nil {
			v.status.SetError(msg.Err)
			return v, nil
		}
		v.preview = msg.Preview
		v.status.SetPreview(msg.Preview.Affected, msg.Preview.Total)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.move(-1)
		return v, nil

	case keymap.Matches(k, v.keymap.Down):
		v.move(1)
		return v, nil

	case keymap.Matches(k, v.keymap.Toggle):
		if len(v.labels) == 0 {
			return v, nil
		}
		name := v.labels[v.cursor].Label.Name
		if v.selected[name] {
			delete(v.selected, name)
		} else {
			v.selected[name] = true
		}
		return v, v.requestPreview()

	case keymap.Matches(k, v.keymap.ToggleAll):
		if len(v.selected) == len(v.labels) {
			v.selected = make(map[string]bool)
		} else {
			for _, l := range v.labels {
				v.selected[l.Label.Name] = true
			}
		}
		return v, v.requestPreview()

	case keymap.Matches(k, v.keymap.Confirm):
		labels := v.Selected()
		if len(labels) == 0 {
			v.status.SetMessage("Select at least one cluster")
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.SelectionConfirmed{Labels: labels}
		}

	case keymap.Matches(k, v.keymap.Quit), keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.Quit{}
		}
	}

	return v, nil
}

// move shifts the cursor by delta, wrapping around the list.
func (v *View) move(delta int) {
	n := len(v.labels)
	if n == 0 {
		return
	}
	v.cursor = (v.cursor + delta + n) % n

	rows := v.visibleRows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	} else if v.cursor >= v.offset+rows {
		v.offset = v.cursor - rows + 1
	}
}

func (v *View) visibleRows() int {
	rows := v.height - chromeLines
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the checklist.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Select image clusters:"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading labels..."))
		b.WriteString("\n")
	case len(v.labels) == 0:
		b.WriteString(v.styles.Muted.Render("No labels recorded. Analyse some images first."))
		b.WriteString("\n")
	default:
		end := v.offset + v.visibleRows()
		if end > len(v.labels) {
			end = len(v.labels)
		}
		for i := v.offset; i < end; i++ {
			b.WriteString(v.renderRow(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.status.View())
	return b.String()
}

func (v *View) renderRow(i int) string {
	lc := v.labels[i]
	name := lc.Label.Name

	cursor := "  "
	if i == v.cursor {
		cursor = v.styles.Cursor.Render("> ")
	}

	box := "[ ]"
	if v.selected[name] {
		box = v.styles.Checked.Render("[x]")
	}

	detail := fmt.Sprintf("(%d files)", lc.Files)
	if v.selected[name] && v.preview != nil {
		detail = fmt.Sprintf("(%d files, %d claimed)", lc.Files, v.preview.PerLabel[name])
	}

	label := v.styles.Normal.Render(name)
	if i == v.cursor {
		label = v.styles.Cursor.Render(name)
	}
	return cursor + box + " " + label + " " + v.styles.Muted.Render(detail)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.status.SetWidth(width)
}

// Selected returns the ticked labels in menu order.
func (v *View) Selected() []string {
	var labels []string
	for _, l := range v.labels {
		if v.selected[l.Label.Name] {
			labels = append(labels, l.Label.Name)
		}
	}
	return labels
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.status
}
