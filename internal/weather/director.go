// Package weather turns named presets into running effects.
//
// A Director owns the set of "ambient" instances of one engine: applying a
// preset starts effects it adds, retargets effects both presets share and
// fades out effects it drops, so switching weather never pops.
package weather

import (
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
)

// Scale bounds for the user intensity multiplier.
const (
	MinScale  = 0.0
	MaxScale  = 1.5
	ScaleStep = 0.1
)

// Director applies presets to an engine.
type Director struct {
	engine  *fx.Engine
	cfg     config.Config
	cycle   *config.CycleSchedule
	logger  *log.Logger
	active  map[string]fx.InstanceID // effect id -> ambient instance
	preset  string
	wind    fx.Vec2
	scale   float64
	started uint64 // engine tick of the last preset change
}

// NewDirector creates a director for engine using cfg's presets.
// rng shuffles the preset cycle when it is configured to.
func NewDirector(engine *fx.Engine, cfg config.Config, rng *rand.Rand, logger *log.Logger) *Director {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var perm []int
	if cfg.Cycle.Shuffle && rng != nil {
		perm = rng.Perm(len(cfg.Cycle.Presets))
	}
	return &Director{
		engine: engine,
		cfg:    cfg,
		cycle:  config.NewCycleSchedule(cfg.Cycle, perm),
		logger: logger,
		active: make(map[string]fx.InstanceID),
		scale:  1,
	}
}

// Engine returns the engine the director drives.
func (d *Director) Engine() *fx.Engine {
	return d.engine
}

// Preset returns the active preset name, or "" before the first Apply.
func (d *Director) Preset() string {
	return d.preset
}

// Wind returns the current wind.
func (d *Director) Wind() fx.Vec2 {
	return d.wind
}

// Scale returns the user intensity multiplier.
func (d *Director) Scale() float64 {
	return d.scale
}

// Presets returns the configured preset names in file order.
func (d *Director) Presets() []string {
	return d.cfg.PresetNames()
}

// Apply transitions to the named preset.
func (d *Director) Apply(name string) error {
	p, ok := d.cfg.Preset(name)
	if !ok {
		return fmt.Errorf("weather: unknown preset %q", name)
	}

	d.wind = fx.Vec2{X: p.Wind.X, Y: p.Wind.Y}
	wanted := make(map[string]bool, len(p.Effects))
	var firstErr error

	for _, pe := range p.Effects {
		wanted[pe.Effect] = true
		ramp := pe.Ramp
		if ramp == 0 {
			ramp = p.Ramp
		}
		target := d.scaled(pe.Intensity)

		if id, ok := d.active[pe.Effect]; ok {
			err := d.engine.SetIntensity(id, target, ramp)
			if err == nil {
				d.engine.SetWind(id, d.wind)
				continue
			}
			// The old instance is gone or fading; start a fresh one.
			delete(d.active, pe.Effect)
		}

		id, err := d.engine.Start(pe.Effect, target, ramp, d.wind)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		d.active[pe.Effect] = id
	}

	for effect, id := range d.active {
		if wanted[effect] {
			continue
		}
		d.engine.Stop(id, d.stopRamp(p.Ramp))
		delete(d.active, effect)
	}

	d.logger.Info("preset applied", "preset", name, "effects", len(p.Effects), "wind", fmt.Sprintf("%.2f,%.2f", d.wind.X, d.wind.Y))
	d.preset = name
	d.started = d.engine.Now()
	return firstErr
}

// stopRamp never returns 0 so removed effects always fade.
func (d *Director) stopRamp(rate float64) float64 {
	if rate <= 0 {
		return 0.05
	}
	return rate
}

func (d *Director) scaled(intensity float64) float64 {
	return core.ClampF(intensity*d.scale, 0, 1)
}

// Next applies the preset after the current one, wrapping around.
func (d *Director) Next() error {
	names := d.cfg.PresetNames()
	if len(names) == 0 {
		return fmt.Errorf("weather: no presets configured")
	}
	i := 0
	for j, n := range names {
		if n == d.preset {
			i = (j + 1) % len(names)
			break
		}
	}
	return d.Apply(names[i])
}

// SetWind changes the wind of every ambient effect.
func (d *Director) SetWind(w fx.Vec2) {
	d.wind = w
	for _, id := range d.active {
		d.engine.SetWind(id, w)
	}
}

// RotateWind turns the wind by a quarter of a half-turn, keeping its
// strength. Calm air gets a light breeze.
func (d *Director) RotateWind() fx.Vec2 {
	w := d.wind
	speed := w.Len()
	if speed == 0 {
		d.SetWind(fx.Vec2{X: 0.2})
		return d.wind
	}
	angle := math.Atan2(w.Y, w.X) + math.Pi/4
	// Keep the wind mostly horizontal so weather still falls.
	d.SetWind(fx.Vec2{X: speed * math.Cos(angle), Y: 0.25 * speed * math.Sin(angle)})
	return d.wind
}

// Nudge changes the user intensity multiplier by delta and retargets the
// active preset.
func (d *Director) Nudge(delta float64) float64 {
	d.scale = core.ClampF(math.Round((d.scale+delta)*100)/100, MinScale, MaxScale)
	p, ok := d.cfg.Preset(d.preset)
	if !ok {
		return d.scale
	}
	for _, pe := range p.Effects {
		id, ok := d.active[pe.Effect]
		if !ok {
			continue
		}
		ramp := pe.Ramp
		if ramp == 0 {
			ramp = p.Ramp
		}
		d.engine.SetIntensity(id, d.scaled(pe.Intensity), ramp)
	}
	return d.scale
}

// SetCycle turns timed preset rotation on or off.
func (d *Director) SetCycle(enabled bool) {
	d.cycle.SetEnabled(enabled)
}

// Update runs once per tick before the engine ticks. It applies the preset
// cycle when it is enabled.
func (d *Director) Update() {
	if !d.cycle.IsEnabled() {
		return
	}
	tick := d.engine.Now()
	name, _ := d.cycle.PresetAt(tick)
	if name != d.preset && (d.cycle.Boundary(tick) || d.preset == "") {
		if err := d.Apply(name); err != nil {
			d.logger.Warn("cycle preset failed", "preset", name, "err", err)
		}
	}
}

// Stop fades out every ambient effect.
func (d *Director) Stop() {
	for effect, id := range d.active {
		d.engine.Stop(id, 0.05)
		delete(d.active, effect)
	}
	d.preset = ""
}

// Active returns the ambient instance ids keyed by effect.
func (d *Director) Active() map[string]fx.InstanceID {
	out := make(map[string]fx.InstanceID, len(d.active))
	for k, v := range d.active {
		out[k] = v
	}
	return out
}

// Since returns ticks since the last preset change.
func (d *Director) Since() uint64 {
	return d.engine.Now() - d.started
}

// Snapshot returns the engine state to persist along with the preset name.
func (d *Director) Snapshot() (string, []fx.InstanceState) {
	return d.preset, d.engine.Snapshot()
}

// Restore replays saved instances and rebuilds the ambient set from them.
// Fading instances are restored but not adopted.
func (d *Director) Restore(preset string, states []fx.InstanceState) error {
	err := d.engine.Restore(states)

	clear(d.active)
	for _, in := range d.engine.Instances() {
		if in.State == fx.StateStopping || in.State == fx.StateStopped || in.HasOrigin {
			continue
		}
		d.active[in.Def.ID] = in.ID
		d.wind = in.Wind
	}
	d.preset = preset
	d.started = d.engine.Now()
	return err
}
