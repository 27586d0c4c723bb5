// Package tui renders the interactive navigator in the terminal. All
// traversal logic lives in internal/navigator; this package only maps key
// presses to navigation events and projects the resulting state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yonote/internal/cache"
	"yonote/internal/navigator"
)

// inputMode indicates what keyboard input currently drives.
type inputMode int

const (
	modeList inputMode = iota
	modeSearchInput
)

// navHandledMsg reports completion of an asynchronous navigator event.
type navHandledMsg struct {
	signal navigator.Signal
	err    error
}

// Model is the bubbletea model wrapping a navigator.
type Model struct {
	nav *navigator.Navigator
	ctx context.Context

	mode      inputMode
	textInput textinput.Model
	busy      bool
	err       error

	width  int
	height int

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	branchStyle   lipgloss.Style
	helpStyle     lipgloss.Style
	dialogStyle   lipgloss.Style
	statusStyle   lipgloss.Style
	errStyle      lipgloss.Style
}

// New creates a TUI over an initialized navigator.
func New(ctx context.Context, nav *navigator.Navigator) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 128

	return &Model{
		nav:       nav,
		ctx:       ctx,
		textInput: ti,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		branchStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		errStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// dispatch runs a navigator event asynchronously. The navigator is owned by
// one goroutine at a time: busy gates further hierarchy-touching events
// until the in-flight one lands.
func (m *Model) dispatch(ev navigator.Event) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		signal, err := m.nav.Handle(m.ctx, ev)
		return navHandledMsg{signal: signal, err: err}
	}
}

// handleNow runs a cursor-only event inline.
func (m *Model) handleNow(ev navigator.Event) (tea.Model, tea.Cmd) {
	signal, err := m.nav.Handle(m.ctx, ev)
	m.err = err
	if signal == navigator.SignalDone {
		return m, tea.Quit
	}
	return m, nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case navHandledMsg:
		m.busy = false
		m.err = msg.err
		if msg.signal == navigator.SignalDone {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearchInput {
			return m.handleSearchInput(msg)
		}
		return m.handleListKeys(msg)
	}

	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		return m.handleNow(navigator.Event{Kind: navigator.EvUp})
	case "down", "j":
		return m.handleNow(navigator.Event{Kind: navigator.EvDown})
	case "pgup":
		return m.handleNow(navigator.Event{Kind: navigator.EvPageUp})
	case "pgdown":
		return m.handleNow(navigator.Event{Kind: navigator.EvPageDown})

	case "enter":
		return m, m.dispatch(navigator.Event{Kind: navigator.EvDescend})

	case "backspace", "left", "h":
		return m, m.dispatch(navigator.Event{Kind: navigator.EvBack})

	case " ":
		return m.handleNow(navigator.Event{Kind: navigator.EvToggle})

	case "ctrl+r", "r":
		return m, m.dispatch(navigator.Event{Kind: navigator.EvRefresh})

	case "/", "ctrl+s":
		if m.nav.Phase() == navigator.Searching {
			return m.handleNow(navigator.Event{Kind: navigator.EvSearchToggle})
		}
		_, _ = m.nav.Handle(m.ctx, navigator.Event{Kind: navigator.EvSearchToggle})
		m.mode = modeSearchInput
		m.textInput.Reset()
		m.textInput.Focus()
		return m, textinput.Blink

	case "n":
		return m.handleNow(navigator.Event{Kind: navigator.EvSearchNext})

	case "R":
		m.nav.PickRoot()
		return m, nil

	case "c", "d":
		return m.handleNow(navigator.Event{Kind: navigator.EvConfirm})

	case "q", "ctrl+c", "esc":
		if m.nav.Phase() == navigator.Searching {
			return m.handleNow(navigator.Event{Kind: navigator.EvSearchToggle})
		}
		return m.handleNow(navigator.Event{Kind: navigator.EvCancel})
	}

	return m, nil
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		return m.handleNow(navigator.Event{Kind: navigator.EvSearchSet, Query: m.textInput.Value()})

	case tea.KeyEsc:
		m.mode = modeList
		return m.handleNow(navigator.Event{Kind: navigator.EvSearchToggle})
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	if m.mode == modeSearchInput {
		return m.centerDialog(m.dialogStyle.Render(
			"Search\n\n" +
				m.textInput.View() + "\n\n" +
				m.helpStyle.Render("Enter: apply  Esc: cancel"),
		))
	}

	var b strings.Builder
	b.WriteString(m.titleStyle.Render(m.nav.Path()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(m.width, 60)))
	b.WriteString("\n")

	if !m.nav.AtRoot() {
		b.WriteString("  ..\n")
	}

	items := m.nav.Visible()
	if len(items) == 0 {
		b.WriteString(m.branchStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	for i, item := range items {
		cursor := " "
		if i == m.nav.Cursor() {
			cursor = ">"
		}
		mark := "[ ]"
		if item.Selected {
			mark = "[x]"
		}
		title := item.Title
		if item.HasChildren || item.Kind == cache.KindCollection {
			title += "/"
		}
		if i == m.nav.Cursor() {
			title = m.selectedStyle.Render(title)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, mark, title))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.errStyle.Render(m.err.Error()))
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := ""
	if m.busy {
		left = "loading..."
	} else if query := m.nav.SearchQuery(); query != "" {
		left = "search: " + query
	}

	right := "enter:open  space:select  r:refresh  /:search  c:confirm  q:quit"
	padding := m.width - len(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.statusStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := 0
	for _, line := range lines {
		if len(line) > dialogWidth {
			dialogWidth = len(line)
		}
	}

	topPad := (m.height - dialogHeight) / 2
	leftPad := (m.width - dialogWidth) / 2
	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Run drives the navigator to completion in the terminal and returns once a
// terminal phase is reached.
func Run(ctx context.Context, nav *navigator.Navigator) error {
	model := New(ctx, nav)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}
