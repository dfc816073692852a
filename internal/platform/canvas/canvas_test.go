package canvas

import (
	"math"
	"strings"
	"testing"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/weather"
)

var (
	sky    = core.RGB(100, 150, 200)
	ground = core.RGB(60, 40, 20)
)

// stubScene has sky on rows 0-2 and ground below, with an actor at (5, 2).
type stubScene struct {
	state core.SceneState
}

func (s *stubScene) ID() string { return "stub" }
func (s *stubScene) Title() string { return "Stub" }
func (s *stubScene) Reset(core.RuntimeConfig) {}
func (s *stubScene) Step(core.InputFrame) core.StepResult { return core.StepResult{} }
func (s *stubScene) State() core.SceneState { return s.state }
func (s *stubScene) Weather() *weather.Director { return nil }
func (s *stubScene) Say(msg string) { s.state.Message = msg }

func (s *stubScene) RenderMap(dst *core.Screen) {
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			if y < 3 {
				dst.CellAt(x, y).BG = sky
				continue
			}
			dst.SetCell(x, y, core.Cell{Rune: '#', FG: ground, BG: ground})
		}
	}
}

func (s *stubScene) RenderActors(dst *core.Screen) {
	dst.SetFG(5, 2, '@', core.ColorRed)
}

func TestSceneLayerOrder(t *testing.T) {
	frame := &fx.Frame{}
	frame.Layers[fx.LayerBackground] = []fx.DrawInstruction{
		{Glyph: 'b', X: 1, Y: 1, Opacity: 1},
		{Glyph: 'b', X: 1, Y: 4, Opacity: 1},
	}
	frame.Layers[fx.LayerBelowCharacters] = []fx.DrawInstruction{
		{Glyph: 'u', X: 5.7, Y: 2.2, Opacity: 1},
		{Glyph: 'u', X: 2, Y: 4, Opacity: 1},
	}
	frame.Layers[fx.LayerForeground] = []fx.DrawInstruction{
		{Glyph: 'f', X: 8, Y: 2, Opacity: 1},
	}

	scr := core.NewScreen(10, 6)
	Scene(scr, &stubScene{}, frame)

	tests := []struct {
		name     string
		x, y     int
		expected rune
	}{
		{"background in the sky", 1, 1, 'b'},
		{"background behind ground", 1, 4, '#'},
		{"below characters under actor", 5, 2, '@'},
		{"below characters over ground", 2, 4, 'u'},
		{"foreground", 8, 2, 'f'},
	}
	for _, tc := range tests {
		if got := scr.Get(tc.x, tc.y); got != tc.expected {
			t.Errorf("%s: cell (%d,%d) = %q, expected %q", tc.name, tc.x, tc.y, got, tc.expected)
		}
	}

	// The sky keeps its colour under a particle.
	if scr.GetCell(1, 1).BG != sky {
		t.Error("particle replaced the sky background")
	}
}

func TestAboveCharactersCoverActor(t *testing.T) {
	frame := &fx.Frame{}
	frame.Layers[fx.LayerAboveCharacters] = []fx.DrawInstruction{{Glyph: '*', X: 5, Y: 2, Opacity: 1}}

	scr := core.NewScreen(10, 6)
	Scene(scr, &stubScene{}, frame)
	if scr.Get(5, 2) != '*' {
		t.Errorf("cell = %q, expected snow over the actor", scr.Get(5, 2))
	}
}

func TestParticleBlending(t *testing.T) {
	red := core.RGB(200, 0, 0)

	tests := []struct {
		name  string
		blend fx.BlendMode
		op    float64
		check func(c core.Cell) bool
	}{
		{"normal half", fx.BlendNormal, 0.5, func(c core.Cell) bool {
			return c.FG == sky.Lerp(red, 0.5)
		}},
		{"additive", fx.BlendAdditive, 1, func(c core.Cell) bool {
			return c.FG == sky.Add(red, 1) && c.FG.R == 255
		}},
		{"multiply darkens", fx.BlendMultiply, 1, func(c core.Cell) bool {
			return c.FG.B == 0 && c.BG.B < sky.B
		}},
		{"screen lightens", fx.BlendScreen, 1, func(c core.Cell) bool {
			return c.FG.R > sky.R && c.FG.B == sky.B
		}},
		{"too faint", fx.BlendNormal, 0.01, func(c core.Cell) bool {
			return c.Rune == ' '
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scr := core.NewScreen(3, 3)
			scr.CellAt(1, 1).BG = sky
			Particle(scr, &fx.DrawInstruction{Glyph: 'x', Tint: red, X: 1.5, Y: 1.5, Opacity: tc.op, Blend: tc.blend})
			if c := scr.GetCell(1, 1); !tc.check(c) {
				t.Errorf("cell = %+v", c)
			}
		})
	}

	// Off-screen particles are ignored.
	scr := core.NewScreen(3, 3)
	Particle(scr, &fx.DrawInstruction{Glyph: 'x', X: -0.5, Y: 1, Opacity: 1})
	Particle(scr, &fx.DrawInstruction{Glyph: 'x', X: 1, Y: 3, Opacity: 1})
	if strings.ContainsRune(scr.String(), 'x') {
		t.Error("off-screen particle was drawn")
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		glyph    rune
		rotation float64
		scale    float64
		expected rune
	}{
		{'|', 0, 1, '|'},
		{'|', math.Pi / 4, 1, '/'},
		{'|', math.Pi / 2, 1, '-'},
		{'|', math.Pi, 1, '|'},
		{'-', -math.Pi / 4, 1, '/'},
		{'@', 1.3, 1, '@'},
		{'*', 0, 0.3, '.'},
		{'*', 0, 0, '*'},
	}
	for _, tc := range tests {
		if got := Glyph(tc.glyph, tc.rotation, tc.scale); got != tc.expected {
			t.Errorf("Glyph(%q, %g, %g) = %q, expected %q", tc.glyph, tc.rotation, tc.scale, got, tc.expected)
		}
	}
}

func TestTintOverlay(t *testing.T) {
	scr := core.NewScreen(4, 2)
	scr.FillBG(core.NewRect(0, 0, 4, 2), sky)
	fog := core.RGB(200, 200, 200)

	Overlays(scr, []fx.OverlayInstruction{{Kind: fx.OverlayTint, Tint: fog, Opacity: 0.5}}, 0)

	expected := sky.Lerp(fog, 0.5)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if got := scr.GetCell(x, y).BG; got != expected {
				t.Fatalf("cell (%d,%d) bg = %s, expected %s", x, y, got.Hex(), expected.Hex())
			}
		}
	}

	// Zero opacity leaves the screen alone.
	before := scr.GetCell(0, 0)
	Overlays(scr, []fx.OverlayInstruction{{Kind: fx.OverlayTint, Tint: fog}}, 0)
	if scr.GetCell(0, 0) != before {
		t.Error("zero-opacity overlay changed a cell")
	}
}

func TestDistortionShiftsRows(t *testing.T) {
	scr := core.NewScreen(10, 4)
	for y := 0; y < 4; y++ {
		scr.DrawText(0, y, "0123456789")
	}

	Overlays(scr, []fx.OverlayInstruction{{Kind: fx.OverlayDistortion, Distortion: 2}}, 3)

	changed := 0
	for y := 0; y < 4; y++ {
		if scr.Row(y) != "0123456789" {
			changed++
		}
	}
	if changed == 0 {
		t.Error("distortion shifted no rows")
	}
}

func TestWindArrow(t *testing.T) {
	tests := []struct {
		wind     fx.Vec2
		expected rune
	}{
		{fx.Vec2{}, '·'},
		{fx.Vec2{X: 1}, '→'},
		{fx.Vec2{X: -0.5}, '←'},
		{fx.Vec2{Y: 1}, '↓'},
		{fx.Vec2{X: 1, Y: 1}, '↘'},
		{fx.Vec2{X: 1, Y: -1}, '↗'},
	}
	for _, tc := range tests {
		if got := WindArrow(tc.wind); got != tc.expected {
			t.Errorf("WindArrow(%+v) = %q, expected %q", tc.wind, got, tc.expected)
		}
	}
}

func TestHUD(t *testing.T) {
	scr := core.NewScreen(60, 12)
	sc := &stubScene{state: core.SceneState{Paused: true, Message: "saved"}}

	HUD(scr, sc)

	top := scr.Row(0)
	if !strings.Contains(top, "Stub") {
		t.Errorf("title missing from %q", top)
	}
	if !strings.Contains(top, "saved") {
		t.Errorf("message missing from %q", top)
	}
	if !strings.Contains(scr.String(), "PAUSED") {
		t.Error("pause box missing")
	}
}
