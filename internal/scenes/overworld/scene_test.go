package overworld

import (
	"testing"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

func testEnv(t *testing.T) registry.Env {
	t.Helper()
	cfg, err := config.Parse(config.DefaultYAML())
	if err != nil {
		t.Fatalf("Parse defaults: %v", err)
	}
	return registry.Env{Config: cfg}
}

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 30, Seed: 12345}
}

func input(actions ...core.Action) core.InputFrame {
	in := core.NewInputFrame()
	for _, a := range actions {
		in.Set(a)
	}
	return in
}

func newTestScene(t *testing.T, id string) *Scene {
	t.Helper()
	b, ok := Lookup(id)
	if !ok {
		t.Fatalf("biome %q missing", id)
	}
	s := New(b, testEnv(t))
	s.Reset(testRuntime())
	return s
}

func TestBiomesRegistered(t *testing.T) {
	for _, b := range Biomes {
		if !registry.Exists(b.ID) {
			t.Errorf("biome %q not registered", b.ID)
		}
	}
	sc, err := registry.Create("tundra", testEnv(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sc.Title() != "Frozen Tundra" {
		t.Errorf("Title() = %q", sc.Title())
	}
	if sc.Weather() != nil {
		t.Error("weather should not exist before Reset")
	}
}

func TestBiomePresetsExist(t *testing.T) {
	env := testEnv(t)
	for _, b := range Biomes {
		if _, ok := env.Config.Preset(b.Preset); !ok {
			t.Errorf("biome %q uses unknown preset %q", b.ID, b.Preset)
		}
	}
}

func TestResetAppliesBiomePreset(t *testing.T) {
	s := newTestScene(t, "valley")

	if got := s.State().Preset; got != "drizzle" {
		t.Errorf("preset = %q, expected drizzle", got)
	}
	vp := s.Weather().Engine().Viewport()
	if vp.W != 80 || vp.H != 24 {
		t.Errorf("viewport = %+v", vp)
	}
	if int(vp.X) != s.Camera() {
		t.Errorf("viewport x %g does not match camera %d", vp.X, s.Camera())
	}
}

func TestZeroEnvFallsBackToDefaults(t *testing.T) {
	b, _ := Lookup("tundra")
	s := New(b, registry.Env{})
	s.Reset(testRuntime())

	// The hardcoded default has no snowfall preset; the first one is used.
	if s.State().Preset == "" {
		t.Error("no preset applied with the built-in config")
	}
	for i := 0; i < 10; i++ {
		s.Step(input())
	}
}

func TestStepTicksEngine(t *testing.T) {
	s := newTestScene(t, "coast")
	for i := 0; i < 120; i++ {
		s.Step(input())
	}
	stats := s.Weather().Engine().Stats()
	if stats.Tick != 120 {
		t.Errorf("engine tick = %d, expected 120", stats.Tick)
	}
	if stats.Live == 0 {
		t.Error("storm produced no particles")
	}
}

func TestWalkingMovesCamera(t *testing.T) {
	s := newTestScene(t, "valley")
	startCam := s.Camera()
	startX := s.Walker().X

	for i := 0; i < 40; i++ {
		s.Step(input(core.ActionRight))
	}
	if s.Walker().X != startX+20 {
		t.Errorf("walker x = %g, expected %g", s.Walker().X, startX+20)
	}
	if s.Camera() != startCam+20 {
		t.Errorf("camera = %d, expected %d", s.Camera(), startCam+20)
	}
	if got := s.Weather().Engine().Viewport().X; got != float64(s.Camera()) {
		t.Errorf("engine viewport x = %g", got)
	}

	// Valley ground is dusty.
	if s.Walker().Steps() == 0 {
		t.Fatal("no steps taken")
	}
	bursts := 0
	for _, in := range s.Weather().Engine().Instances() {
		if in.HasOrigin && in.Def.ID == "dust" {
			bursts++
		}
	}
	if bursts == 0 {
		t.Error("walking raised no dust")
	}
}

func TestPauseFreezesWeather(t *testing.T) {
	s := newTestScene(t, "forest")
	s.Step(input())

	res := s.Step(input(core.ActionPause))
	if !res.State.Paused {
		t.Fatal("pause not reported")
	}
	tick := s.Weather().Engine().Now()
	for i := 0; i < 5; i++ {
		s.Step(input(core.ActionRight))
	}
	if s.Weather().Engine().Now() != tick {
		t.Error("engine ticked while paused")
	}

	res = s.Step(input(core.ActionPause))
	if res.State.Paused || s.Weather().Engine().Now() != tick+1 {
		t.Error("unpause did not resume ticking")
	}
}

func TestActions(t *testing.T) {
	s := newTestScene(t, "valley")

	res := s.Step(input(core.ActionConfirm))
	if res.State.Preset == "drizzle" {
		t.Error("confirm did not change the preset")
	}
	if res.State.Message == "" {
		t.Error("preset change not announced")
	}

	res = s.Step(input(core.ActionSave))
	if !res.SaveRequested {
		t.Error("save not requested")
	}

	s.Step(input(core.ActionUp))
	if s.Weather().Scale() != 1.1 {
		t.Errorf("scale = %g after Up", s.Weather().Scale())
	}

	s.Step(input(core.ActionWind))
	if s.Weather().Wind() == (fx.Vec2{}) {
		t.Error("wind did not change")
	}

	res = s.Step(input(core.ActionRestart))
	if res.State.Preset != "drizzle" || s.Weather().Engine().Now() != 0 {
		t.Errorf("restart state = %+v at tick %d", res.State, s.Weather().Engine().Now())
	}
}

func TestDeterminism(t *testing.T) {
	run := func() fx.Stats {
		s := newTestScene(t, "volcano")
		for i := 0; i < 200; i++ {
			in := input()
			if i%3 == 0 {
				in.Set(core.ActionLeft)
			}
			s.Step(in)
		}
		return s.Weather().Engine().Stats()
	}

	a, b := run(), run()
	if a != b {
		t.Errorf("same seed diverged:\n%+v\n%+v", a, b)
	}
}

func TestRenderLayers(t *testing.T) {
	s := newTestScene(t, "valley")
	scr := core.NewScreen(80, 24)

	// A rune in the sky survives the map; one underground does not.
	scr.Set(0, 0, '*')
	col := s.terrain.Column(s.Camera())
	scr.Set(0, col.Surface+1, '*')

	s.RenderMap(scr)
	if scr.Get(0, 0) != '*' {
		t.Error("map overwrote a sky cell")
	}
	if !scr.GetCell(0, 0).BG.Set {
		t.Error("sky has no background colour")
	}
	if col.Surface+1 < 24 && scr.Get(0, col.Surface+1) == '*' {
		t.Error("ground did not cover the rune")
	}
	if scr.Get(0, col.Surface) != s.biome.Surface {
		t.Errorf("surface rune = %q", scr.Get(0, col.Surface))
	}

	s.RenderActors(scr)
	x := int(s.Walker().X) - s.Camera()
	if scr.Get(x, s.Walker().Feet()-1) != WalkerHead {
		t.Error("walker not drawn")
	}
}

func TestTerrainBounds(t *testing.T) {
	for _, b := range Biomes {
		tr := NewTerrain(&b, WorldWidth, 24, 99)
		for x := 0; x < tr.Width(); x++ {
			c := tr.Column(x)
			if c.Surface < 24/3 || c.Surface >= 24 {
				t.Fatalf("%s: column %d surface %d out of range", b.ID, x, c.Surface)
			}
			if s := tr.Surface(x); s > c.Surface {
				t.Fatalf("%s: walker surface %d below ground %d", b.ID, s, c.Surface)
			}
			if c.Water && tr.Footstep(x) != "" {
				t.Fatalf("%s: water column raises %q", b.ID, tr.Footstep(x))
			}
		}

		again := NewTerrain(&b, WorldWidth, 24, 99)
		for x := 0; x < tr.Width(); x++ {
			if tr.Column(x) != again.Column(x) {
				t.Fatalf("%s: terrain not deterministic at column %d", b.ID, x)
			}
		}
	}
}

func TestCoastFloods(t *testing.T) {
	b, _ := Lookup("coast")
	tr := NewTerrain(&b, WorldWidth, 24, 7)
	if tr.WaterRow() != 18 {
		t.Errorf("WaterRow() = %d", tr.WaterRow())
	}
	wet := 0
	for x := 0; x < tr.Width(); x++ {
		if tr.Column(x).Water {
			wet++
			if tr.Surface(x) != tr.WaterRow() {
				t.Errorf("flooded column %d surface %d", x, tr.Surface(x))
			}
		}
	}
	if wet == 0 {
		t.Error("coast has no water")
	}
}
