package overworld

import (
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/movement"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/weather"
)

// messageTicks is how long a status message stays visible.
const messageTicks = 60

// Scene implements a scrolling biome with weather.
type Scene struct {
	biome   Biome
	env     registry.Env
	runtime core.RuntimeConfig
	logger  *log.Logger

	terrain  *Terrain
	walker   *movement.Walker
	engine   *fx.Engine
	director *weather.Director

	camX      int
	paused    bool
	message   string
	messageAt int
	tickCount int
}

// New creates a scene for biome. Weather is built on Reset.
func New(b Biome, env registry.Env) *Scene {
	logger := env.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scene{biome: b, env: env, logger: logger.With("scene", b.ID)}
}

// ID returns the unique identifier for this scene.
func (s *Scene) ID() string {
	return s.biome.ID
}

// Title returns the display name for this scene.
func (s *Scene) Title() string {
	return s.biome.Title
}

// Biome returns the scene's biome.
func (s *Scene) Biome() Biome {
	return s.biome
}

// Reset rebuilds the map, the walker and the weather for the given screen.
func (s *Scene) Reset(runtime core.RuntimeConfig) {
	s.runtime = runtime

	cfg := s.env.Config
	if len(cfg.Effects) == 0 {
		cfg = config.Default()
	}

	reg, err := config.BuildRegistry(cfg)
	if err != nil {
		s.logger.Error("effects rejected, using defaults", "err", err)
		cfg = config.Default()
		reg, _ = config.BuildRegistry(cfg)
	}

	opts := cfg.EngineOptions()
	if opts.Seed == 0 {
		opts.Seed = runtime.Seed
	}
	opts.Logger = s.logger
	s.engine = fx.NewEngine(reg, opts)

	s.terrain = NewTerrain(&s.biome, WorldWidth, runtime.ScreenH, runtime.Seed)
	s.walker = movement.NewWalker(s.engine, s.terrain, WorldWidth/2)
	s.director = weather.NewDirector(s.engine, cfg, rand.New(rand.NewSource(runtime.Seed)), s.logger)

	s.paused = false
	s.message = ""
	s.tickCount = 0
	s.follow()

	preset := s.biome.Preset
	if _, ok := cfg.Preset(preset); !ok {
		if names := cfg.PresetNames(); len(names) > 0 {
			preset = names[0]
		}
	}
	if err := s.director.Apply(preset); err != nil {
		s.logger.Warn("default preset failed", "preset", preset, "err", err)
	}
}

// follow centres the camera on the walker and moves the engine viewport.
func (s *Scene) follow() {
	w := s.runtime.ScreenW
	maxX := core.Max(0, s.terrain.Width()-w)
	s.camX = core.Clamp(int(math.Floor(s.walker.X))-w/2, 0, maxX)
	s.engine.SetViewport(fx.Viewport{
		X: float64(s.camX),
		Y: 0,
		W: float64(w),
		H: float64(s.runtime.ScreenH),
	})
}

// Step advances the scene by one tick.
func (s *Scene) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionRestart) {
		s.Reset(s.runtime)
		s.say("restarted")
		return core.StepResult{State: s.State()}
	}

	if in.Has(core.ActionPause) {
		s.paused = !s.paused
	}

	if in.Has(core.ActionConfirm) {
		if err := s.director.Next(); err != nil {
			s.say(err.Error())
		} else {
			s.say("weather: " + s.director.Preset())
		}
	}
	if in.Has(core.ActionUp) {
		s.director.Nudge(weather.ScaleStep)
	}
	if in.Has(core.ActionDown) {
		s.director.Nudge(-weather.ScaleStep)
	}
	if in.Has(core.ActionWind) {
		s.director.RotateWind()
	}

	result := core.StepResult{SaveRequested: in.Has(core.ActionSave)}
	if s.paused {
		result.State = s.State()
		return result
	}

	s.tickCount++
	switch {
	case in.Has(core.ActionLeft):
		s.walker.Walk(-1)
	case in.Has(core.ActionRight):
		s.walker.Walk(1)
	}
	s.follow()

	s.director.Update()
	s.walker.Update()
	s.engine.Tick()

	result.State = s.State()
	return result
}

// Say shows a status message for a short while.
func (s *Scene) Say(msg string) {
	s.say(msg)
}

func (s *Scene) say(msg string) {
	s.message = msg
	s.messageAt = s.tickCount
}

// RenderMap draws sky, terrain, water and props. Sky cells keep their rune
// so background weather drawn earlier shows through.
func (s *Scene) RenderMap(dst *core.Screen) {
	h := dst.Height()
	b := &s.biome

	for sx := 0; sx < dst.Width(); sx++ {
		col := s.terrain.Column(s.camX + sx)

		for y := 0; y < h; y++ {
			switch {
			case y > col.Surface:
				dst.SetCell(sx, y, core.Cell{Rune: b.Soil, FG: b.SoilFG, BG: b.SoilBG})
			case y == col.Surface:
				dst.SetCell(sx, y, core.Cell{Rune: b.Surface, FG: b.SurfaceFG, BG: b.SoilBG})
			case col.Water && y >= s.terrain.WaterRow():
				r := ' '
				if y == s.terrain.WaterRow() {
					r = WaterChar
				}
				dst.SetCell(sx, y, core.Cell{Rune: r, FG: b.WaterFG, BG: b.WaterBG})
			default:
				if c := dst.CellAt(sx, y); c != nil {
					c.BG = b.SkyAt(y, h)
				}
			}
		}

		if col.Prop >= 0 {
			p := b.Props[col.Prop]
			for i, r := range p.Glyphs {
				dst.SetFG(sx, col.Surface-1-i, r, p.Color)
			}
		}
	}
}

// RenderActors draws the walker.
func (s *Scene) RenderActors(dst *core.Screen) {
	x := int(math.Floor(s.walker.X)) - s.camX
	feet := s.walker.Feet()

	body := WalkerBody
	if s.walker.Steps()%2 == 1 {
		body = WalkerStep
	}
	dst.SetFG(x, feet-1, WalkerHead, core.ColorWhite)
	dst.SetFG(x, feet, body, core.ColorRed)
}

// State returns the current scene state.
func (s *Scene) State() core.SceneState {
	st := core.SceneState{Paused: s.paused}
	if s.director != nil {
		st.Preset = s.director.Preset()
	}
	if s.message != "" && s.tickCount-s.messageAt < messageTicks {
		st.Message = s.message
	}
	return st
}

// Weather returns the director, or nil before Reset.
func (s *Scene) Weather() *weather.Director {
	return s.director
}

// Walker returns the scene character.
func (s *Scene) Walker() *movement.Walker {
	return s.walker
}

// Camera returns the world column at the left screen edge.
func (s *Scene) Camera() int {
	return s.camX
}

// Register every biome with the registry
func init() {
	for _, b := range Biomes {
		registry.Register(b.ID, func(env registry.Env) registry.Scene {
			return New(b, env)
		})
	}
}
