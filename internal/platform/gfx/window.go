// Package gfx runs a scene in a desktop window with ebiten.
//
// Scenes and weather are composed into a core.Screen exactly like the
// terminal host; every cell is then painted as a coloured block with its
// glyph on top. Additive particles also get a soft glow at their exact
// sub-cell position.
package gfx

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/platform/canvas"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

// Cell size in pixels, matching basicfont.Face7x13.
const (
	CellW = 7
	CellH = 13

	// glyphBaseline is the text baseline inside a cell.
	glyphBaseline = 10
)

var (
	defaultFG = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	defaultBG = color.RGBA{R: 8, G: 8, B: 16, A: 255}
)

// errQuit ends the ebiten loop without reporting a failure.
var errQuit = errors.New("gfx: quit")

// Window is an ebiten.Game that hosts one scene.
type Window struct {
	scene  registry.Scene
	store  *storage.Store
	logger *log.Logger
	screen *core.Screen
	config core.RuntimeConfig
	keys   []ebiten.Key
	held   []ebiten.Key
	glow   bool
	halo   *ebiten.Image
}

// Options tune the window.
type Options struct {
	Logger *log.Logger
	Preset string // applied after Reset; empty keeps the scene default
	Glow   bool   // draw additive particles with a soft glow
}

// NewWindow creates a window for sc. The scene is reset to the config's
// screen size, measured in cells.
func NewWindow(sc registry.Scene, store *storage.Store, cfg core.RuntimeConfig, opts Options) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	sc.Reset(cfg)
	if opts.Preset != "" {
		if err := sc.Weather().Apply(opts.Preset); err != nil {
			logger.Warn("preset not applied", "preset", opts.Preset, "err", err)
		}
	}
	return &Window{
		scene:  sc,
		store:  store,
		logger: logger,
		screen: core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		config: cfg,
		glow:   opts.Glow,
	}
}

// Scene returns the hosted scene.
func (w *Window) Scene() registry.Scene {
	return w.scene
}

// Update runs one simulation tick.
func (w *Window) Update() error {
	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	w.held = inpututil.AppendPressedKeys(w.held[:0])

	in, quit := Actions(w.keys, w.held)
	if quit {
		return errQuit
	}

	result := w.scene.Step(in)
	if result.SaveRequested {
		w.saveSnapshot()
	}
	return nil
}

// Actions maps the keys pressed this tick and the keys held down to scene
// actions. Walking follows held keys; everything else fires once per press.
func Actions(just, held []ebiten.Key) (core.InputFrame, bool) {
	in := core.NewInputFrame()
	ctrl := false
	for _, k := range held {
		switch k {
		case ebiten.KeyA, ebiten.KeyArrowLeft:
			in.Set(core.ActionLeft)
		case ebiten.KeyD, ebiten.KeyArrowRight:
			in.Set(core.ActionRight)
		case ebiten.KeyControl, ebiten.KeyControlLeft, ebiten.KeyControlRight, ebiten.KeyMeta:
			ctrl = true
		}
	}

	for _, k := range just {
		switch k {
		case ebiten.KeyQ, ebiten.KeyEscape:
			return in, true
		case ebiten.KeyS:
			if ctrl {
				in.Set(core.ActionSave)
			} else {
				in.Set(core.ActionDown)
			}
		case ebiten.KeyW, ebiten.KeyArrowUp:
			in.Set(core.ActionUp)
		case ebiten.KeyArrowDown:
			in.Set(core.ActionDown)
		case ebiten.KeyEnter, ebiten.KeyN:
			in.Set(core.ActionConfirm)
		case ebiten.KeyTab:
			in.Set(core.ActionWind)
		case ebiten.KeyP, ebiten.KeySpace:
			in.Set(core.ActionPause)
		case ebiten.KeyR:
			in.Set(core.ActionRestart)
		}
	}
	return in, false
}

func (w *Window) saveSnapshot() {
	if w.store == nil {
		w.scene.Say("no database, snapshot not saved")
		return
	}
	d := w.scene.Weather()
	preset, states := d.Snapshot()
	id, err := w.store.SaveSnapshot(storage.NewSnapshot(w.scene.ID(), preset, d.Engine().Now(), states))
	if err != nil {
		w.logger.Error("snapshot save failed", "scene", w.scene.ID(), "err", err)
		w.scene.Say("save failed")
		return
	}
	w.logger.Info("snapshot saved", "id", id, "scene", w.scene.ID(), "preset", preset)
	w.scene.Say(fmt.Sprintf("snapshot #%d saved", id))
}

// Draw paints the composed cells and the particle glow.
func (w *Window) Draw(dst *ebiten.Image) {
	frame := w.scene.Weather().Engine().Frame()
	canvas.Scene(w.screen, w.scene, frame)
	canvas.HUD(w.screen, w.scene)

	dst.Fill(defaultBG)
	for y := 0; y < w.screen.Height(); y++ {
		for x := 0; x < w.screen.Width(); x++ {
			c := w.screen.GetCell(x, y)
			px, py := float32(x*CellW), float32(y*CellH)
			if c.BG.Set {
				vector.DrawFilledRect(dst, px, py, CellW, CellH, RGBA(c.BG, defaultBG), false)
			}
			if c.Rune != ' ' {
				text.Draw(dst, string(c.Rune), basicfont.Face7x13, int(px), int(py)+glyphBaseline, RGBA(c.FG, defaultFG))
			}
		}
	}

	if w.glow && frame != nil {
		w.drawGlow(dst, frame)
	}
}

// drawGlow adds a faint halo around additive particles. Halos are drawn
// into their own image and added onto the screen with the lighter blend.
func (w *Window) drawGlow(dst *ebiten.Image, frame *fx.Frame) {
	bw, bh := dst.Bounds().Dx(), dst.Bounds().Dy()
	if w.halo == nil || w.halo.Bounds().Dx() != bw || w.halo.Bounds().Dy() != bh {
		w.halo = ebiten.NewImage(bw, bh)
	}
	w.halo.Clear()

	drawn := 0
	for l := range frame.Layers {
		for i := range frame.Layers[l] {
			d := &frame.Layers[l][i]
			if d.Blend != fx.BlendAdditive || d.Opacity < 0.05 {
				continue
			}
			tint := RGBA(d.Tint, defaultFG)
			a := uint8(math.Min(1, d.Opacity*0.35) * 255)
			glow := color.RGBA{
				R: uint8(uint16(tint.R) * uint16(a) / 255),
				G: uint8(uint16(tint.G) * uint16(a) / 255),
				B: uint8(uint16(tint.B) * uint16(a) / 255),
				A: a,
			}
			r := float32(CellW) * float32(math.Max(d.Scale, 0.5))
			vector.DrawFilledCircle(w.halo, float32(d.X*CellW), float32(d.Y*CellH), r, glow, true)
			drawn++
		}
	}
	if drawn == 0 {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.Blend = ebiten.BlendLighter
	dst.DrawImage(w.halo, op)
}

// Layout keeps the logical screen at the scene's cell grid; ebiten scales
// it to the window.
func (w *Window) Layout(int, int) (int, int) {
	return w.screen.Width() * CellW, w.screen.Height() * CellH
}

// RGBA converts a cell colour, using fallback for the terminal default.
func RGBA(c core.Color, fallback color.RGBA) color.RGBA {
	if !c.Set {
		return fallback
	}
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Run opens a window for sc and blocks until it is closed.
func Run(sc registry.Scene, store *storage.Store, cfg core.RuntimeConfig, opts Options) error {
	w := NewWindow(sc, store, cfg, opts)

	ebiten.SetWindowTitle("Weather - " + sc.Title())
	ebiten.SetWindowSize(cfg.ScreenW*CellW*2, cfg.ScreenH*CellH*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TickRate > 0 {
		ebiten.SetTPS(cfg.TickRate)
	}

	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
