package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/platform/canvas"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

// Options tune how a scene starts.
type Options struct {
	Preset   string            // preset applied after Reset; empty keeps the biome default
	Snapshot *storage.Snapshot // weather restored after Reset, wins over Preset
	Cycle    bool              // rotate presets on the configured schedule
	Logger   *log.Logger
	Renderer *lipgloss.Renderer // nil uses the default renderer

	// Embedded models run inside another program (the SSH session) and
	// report Back instead of quitting.
	Embedded bool
}

// Model is the Bubble Tea model for running a weather scene.
type Model struct {
	scene      registry.Scene
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	opts       Options
	logger     *log.Logger
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	state      core.SceneState
	loop       uint64
	quitting   bool
	backToMenu bool
}

// NewModel creates a new Bubble Tea model for the given scene.
func NewModel(sc registry.Scene, store *storage.Store, cfg core.RuntimeConfig, opts Options) Model {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := Model{
		scene:      sc,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		store:      store,
		config:     cfg,
		opts:       opts,
		logger:     logger,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
		loop:       nextLoop(),
	}
	m.start()
	return m
}

// start resets the scene and applies the requested weather.
func (m *Model) start() {
	m.scene.Reset(m.config)
	d := m.scene.Weather()

	switch {
	case m.opts.Snapshot != nil:
		snap := m.opts.Snapshot
		if err := d.Restore(snap.Preset, snap.Instances); err != nil {
			m.logger.Warn("snapshot partly restored", "id", snap.ID, "err", err)
		}
		m.scene.Say(fmt.Sprintf("restored snapshot #%d", snap.ID))
	case m.opts.Preset != "":
		if err := d.Apply(m.opts.Preset); err != nil {
			m.logger.Warn("preset rejected", "preset", m.opts.Preset, "err", err)
			m.scene.Say(err.Error())
		}
	}
	d.SetCycle(m.opts.Cycle)
	m.state = m.scene.State()
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate, m.loop)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		if msg.Loop != m.loop {
			return m, nil
		}
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+p" {
		m.saveScreenshot()
		return m, nil
	}

	if m.keyMapper.MapKeyToFrame(msg, &m.inputFrame) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.inputFrame.Has(core.ActionBack) {
		m.backToMenu = true
		if !m.opts.Embedded {
			return m, tea.Quit
		}
	}

	return m, nil
}

// handleResize keeps the weather across a terminal resize: the scene is
// rebuilt for the new size and the running instances are restored into it.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	if msg.Width == m.config.ScreenW && msg.Height == m.config.ScreenH {
		return m, nil
	}
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)

	d := m.scene.Weather()
	preset, states := d.Snapshot()
	scale := d.Scale()
	wind := d.Wind()

	m.scene.Reset(m.config)
	d = m.scene.Weather()
	if err := d.Restore(preset, states); err != nil {
		m.logger.Debug("resize dropped instances", "err", err)
	}
	d.Nudge(scale - d.Scale())
	d.SetWind(wind)
	d.SetCycle(m.opts.Cycle)
	m.state = m.scene.State()

	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	result := m.scene.Step(m.inputFrame)
	m.state = result.State

	if result.SaveRequested {
		m.saveSnapshot()
	}

	// Clear input for next frame
	m.inputFrame.Clear()

	// Continue ticking
	return m, tickCmd(m.config.TickRate, m.loop)
}

// saveSnapshot persists the scene's weather and reports the outcome in the HUD.
func (m *Model) saveSnapshot() {
	if m.store == nil {
		m.scene.Say("no database, snapshot not saved")
		return
	}

	d := m.scene.Weather()
	preset, states := d.Snapshot()
	snap := storage.NewSnapshot(m.scene.ID(), preset, d.Engine().Now(), states)

	id, err := m.store.SaveSnapshot(snap)
	if err != nil {
		m.logger.Error("snapshot save failed", "scene", snap.SceneID, "err", err)
		m.scene.Say("save failed")
		return
	}
	m.logger.Info("snapshot saved", "id", id, "scene", snap.SceneID, "preset", preset, "instances", len(states))
	m.scene.Say(fmt.Sprintf("snapshot #%d saved", id))
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.draw()

	dir := filepath.Join(os.Getenv("HOME"), ".weather", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.txt", m.scene.ID(), timestamp)
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.logger.Warn("screenshot failed", "path", path, "err", err)
		return
	}
	m.scene.Say("screenshot saved")
}

// draw composes the scene, its weather and the HUD into the screen buffer.
func (m *Model) draw() {
	canvas.Scene(m.screen, m.scene, m.scene.Weather().Engine().Frame())
	canvas.HUD(m.screen, m.scene)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.draw()

	if m.opts.Renderer != nil {
		return renderScreen(m.opts.Renderer, m.screen)
	}
	return RenderScreen(m.screen)
}

// BackToMenu reports whether the user asked to leave the scene.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// Scene returns the running scene.
func (m Model) Scene() registry.Scene {
	return m.scene
}

// Run starts the Bubble Tea program for sc. It returns true when the user
// pressed Back rather than Quit.
func Run(sc registry.Scene, store *storage.Store, cfg core.RuntimeConfig, opts Options) (bool, error) {
	model := NewModel(sc, store, cfg, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	if err != nil {
		return false, err
	}
	if fm, ok := final.(Model); ok {
		return fm.BackToMenu(), nil
	}
	return false, nil
}
