package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

// Snapshot browser layout constants
const (
	minWidthForSidebar = 80  // Minimum width to show scene list sidebar
	sidebarWidth       = 20  // Width of scene list sidebar
	maxRows            = 100 // Max snapshots or runs to load
)

// SnapshotsKeyMap defines the key bindings for the snapshot browser.
type SnapshotsKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Load      key.Binding
	Delete    key.Binding
	Runs      key.Binding
	Back      key.Binding
	Quit      key.Binding
	NextScene key.Binding
	PrevScene key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k SnapshotsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextScene, k.Load, k.Delete, k.Runs, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k SnapshotsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextScene, k.PrevScene},
		{k.Load, k.Delete, k.Runs},
		{k.Back, k.Quit},
	}
}

// DefaultSnapshotsKeyMap returns default key bindings.
func DefaultSnapshotsKeyMap() SnapshotsKeyMap {
	return SnapshotsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev scene"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next scene"),
		),
		NextScene: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next scene"),
		),
		PrevScene: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev scene"),
		),
		Load: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "load"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Runs: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "runs"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// SnapshotsModel is the Bubble Tea model for browsing saved weather.
// It lists the snapshots of one scene at a time, or the recent headless
// simulation runs when toggled.
type SnapshotsModel struct {
	scenes      []registry.SceneInfo
	sceneCursor int
	store       *storage.Store
	snapshots   []storage.Snapshot
	runs        []storage.RunStats
	showRuns    bool
	table       table.Model
	help        help.Model
	keys        SnapshotsKeyMap
	width       int
	height      int
	status      string
	quitting    bool
	goingBack   bool
	selected    *storage.Snapshot
	showSidebar bool
}

// NewSnapshotsModel creates a new snapshot browser.
func NewSnapshotsModel(store *storage.Store, width, height int) SnapshotsModel {
	h := help.New()
	h.ShowAll = false

	m := SnapshotsModel{
		scenes:      registry.List(),
		store:       store,
		keys:        DefaultSnapshotsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}

	m.table = m.createTable()
	m.reload()

	return m
}

// columns returns the table columns for the current view.
func (m *SnapshotsModel) columns() []table.Column {
	tableWidth := m.width - 4 // Margins
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3 // Sidebar + border + gap
	}

	if m.showRuns {
		return []table.Column{
			{Title: "Preset", Width: 12},
			{Title: "Ticks", Width: 7},
			{Title: "Spawned", Width: 8},
			{Title: "Dropped", Width: 8},
			{Title: "Peak", Width: 10},
			{Title: "Date", Width: 13},
		}
	}

	cols := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Preset", Width: 12},
		{Title: "Tick", Width: 7},
		{Title: "Effects", Width: 8},
		{Title: "Date", Width: 13},
	}
	if tableWidth > 60 {
		cols[1].Width = tableWidth - 45
		if cols[1].Width > 20 {
			cols[1].Width = 20
		}
	}
	return cols
}

// createTable creates a new table with appropriate columns.
func (m *SnapshotsModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("24")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// currentScene returns the scene whose snapshots are shown.
func (m *SnapshotsModel) currentScene() string {
	if len(m.scenes) == 0 {
		return ""
	}
	return m.scenes[m.sceneCursor].ID
}

// reload fetches the rows for the current view.
func (m *SnapshotsModel) reload() {
	m.snapshots = nil
	m.runs = nil

	if m.store != nil {
		var err error
		if m.showRuns {
			m.runs, err = m.store.RecentRuns("", maxRows)
		} else if id := m.currentScene(); id != "" {
			m.snapshots, err = m.store.ListSnapshots(id, maxRows)
		}
		if err != nil {
			m.status = err.Error()
		}
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the loaded rows.
func (m *SnapshotsModel) updateTableRows() {
	var rows []table.Row
	if m.showRuns {
		rows = make([]table.Row, len(m.runs))
		for i, r := range m.runs {
			rows[i] = table.Row{
				r.Preset,
				fmt.Sprintf("%d", r.Ticks),
				fmt.Sprintf("%d", r.Spawned),
				fmt.Sprintf("%d", r.Dropped),
				fmt.Sprintf("%d/%d", r.PeakLive, r.Capacity),
				r.CreatedAt.Format("Jan 02 15:04"),
			}
		}
	} else {
		rows = make([]table.Row, len(m.snapshots))
		for i, s := range m.snapshots {
			rows[i] = table.Row{
				fmt.Sprintf("%d", s.ID),
				s.Preset,
				fmt.Sprintf("%d", s.Tick),
				fmt.Sprintf("%d", len(s.Instances)),
				s.CreatedAt.Format("Jan 02 15:04"),
			}
		}
	}

	// Columns must change before rows so the table never renders a row
	// wider than its header.
	m.table.SetRows(nil)
	m.table.SetColumns(m.columns())
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the snapshot browser.
func (m SnapshotsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the snapshot browser.
func (m SnapshotsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Runs):
			m.showRuns = !m.showRuns
			m.status = ""
			m.reload()
			return m, nil

		case key.Matches(msg, m.keys.NextScene), key.Matches(msg, m.keys.Right):
			if len(m.scenes) > 0 && !m.showRuns {
				m.sceneCursor = (m.sceneCursor + 1) % len(m.scenes)
				m.status = ""
				m.reload()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevScene), key.Matches(msg, m.keys.Left):
			if len(m.scenes) > 0 && !m.showRuns {
				m.sceneCursor--
				if m.sceneCursor < 0 {
					m.sceneCursor = len(m.scenes) - 1
				}
				m.status = ""
				m.reload()
			}
			return m, nil

		case key.Matches(msg, m.keys.Load):
			if snap := m.cursorSnapshot(); snap != nil {
				m.selected = snap
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			m.deleteSelected()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// cursorSnapshot returns the snapshot under the table cursor.
func (m *SnapshotsModel) cursorSnapshot() *storage.Snapshot {
	if m.showRuns {
		return nil
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snapshots) {
		return nil
	}
	snap := m.snapshots[i]
	return &snap
}

// deleteSelected removes the snapshot under the cursor.
func (m *SnapshotsModel) deleteSelected() {
	snap := m.cursorSnapshot()
	if snap == nil || m.store == nil {
		return
	}
	if err := m.store.DeleteSnapshot(snap.ID); err != nil {
		m.status = err.Error()
		return
	}
	m.reload()
	m.status = fmt.Sprintf("deleted snapshot #%d", snap.ID)
}

// View renders the snapshot browser.
func (m SnapshotsModel) View() string {
	if m.quitting || m.goingBack || m.selected != nil {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "SNAPSHOTS"
	switch {
	case m.showRuns:
		title = "SIMULATION RUNS"
	case len(m.scenes) > 0:
		title = fmt.Sprintf("SNAPSHOTS - %s", m.scenes[m.sceneCursor].Title)
	}

	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.showSidebar && !m.showRuns {
		b.WriteString(m.renderWideLayout())
	} else {
		b.WriteString(m.renderNarrowLayout())
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	if m.status != "" {
		b.WriteString(helpStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWideLayout renders the browser with a scene sidebar.
func (m SnapshotsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Scenes\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, s := range m.scenes {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.sceneCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}

		name := s.Title
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(sidebar.String()), "  ", tableStyle.Render(m.renderTableContent()))
}

// renderNarrowLayout renders scene tabs above the table.
func (m SnapshotsModel) renderNarrowLayout() string {
	var b strings.Builder

	if !m.showRuns && len(m.scenes) > 0 {
		tabStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
		activeTabStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

		tabs := make([]string, len(m.scenes))
		for i, s := range m.scenes {
			shortName := s.ID
			if i == m.sceneCursor {
				tabs[i] = activeTabStyle.Render(shortName)
			} else {
				tabs[i] = tabStyle.Render(" " + shortName + " ")
			}
		}

		tabLine := strings.Join(tabs, " ")
		if lipgloss.Width(tabLine) > m.width-4 {
			tabLine = fmt.Sprintf("< %s >", m.scenes[m.sceneCursor].Title)
		}
		b.WriteString(centerText(tabLine, m.width))
		b.WriteString("\n\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m SnapshotsModel) renderTableContent() string {
	empty := ""
	switch {
	case m.store == nil:
		empty = "No database open."
	case m.showRuns && len(m.runs) == 0:
		empty = "No runs recorded yet.\nRun 'weather simulate' to record one."
	case !m.showRuns && len(m.snapshots) == 0:
		empty = "No snapshots saved yet.\nPress Ctrl+S in a scene to save one."
	}
	if empty != "" {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render(empty)
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m SnapshotsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m SnapshotsModel) IsQuitting() bool {
	return m.quitting
}

// Selected returns the snapshot chosen for loading, or nil.
func (m SnapshotsModel) Selected() *storage.Snapshot {
	return m.selected
}

// SnapshotsResult is the outcome of the snapshot browser.
type SnapshotsResult struct {
	Back bool              // return to the menu
	Load *storage.Snapshot // snapshot to open, if any
}

// RunSnapshots runs the snapshot browser screen.
func RunSnapshots(store *storage.Store, width, height int) (SnapshotsResult, error) {
	model := NewSnapshotsModel(store, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return SnapshotsResult{}, err
	}

	m, ok := finalModel.(SnapshotsModel)
	if !ok {
		return SnapshotsResult{}, nil
	}

	return SnapshotsResult{Back: m.IsGoingBack(), Load: m.Selected()}, nil
}
