package weather

import (
	"math"
	"testing"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/fx"
)

func newTestDirector(t *testing.T) (*Director, *fx.Engine) {
	t.Helper()
	cfg, err := config.Parse(config.DefaultYAML())
	if err != nil {
		t.Fatalf("Parse defaults: %v", err)
	}
	reg, err := config.BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	e := fx.NewEngine(reg, fx.Options{Capacity: 512, Seed: 7})
	e.SetViewport(fx.Viewport{W: 80, H: 24})
	return NewDirector(e, cfg, nil, nil), e
}

func stateOf(t *testing.T, e *fx.Engine, id fx.InstanceID) fx.State {
	t.Helper()
	in, ok := e.Instance(id)
	if !ok {
		t.Fatalf("instance %d missing", id)
	}
	return in.State
}

func TestApplyStartsPresetEffects(t *testing.T) {
	d, e := newTestDirector(t)

	if err := d.Apply("storm"); err != nil {
		t.Fatalf("Apply(storm) failed: %v", err)
	}
	active := d.Active()
	for _, effect := range []string{"rain", "rain-mist", "darkness"} {
		if _, ok := active[effect]; !ok {
			t.Errorf("storm should run %s", effect)
		}
	}
	if d.Preset() != "storm" {
		t.Errorf("Preset() = %q", d.Preset())
	}

	rain, _ := e.Instance(active["rain"])
	if rain.Target != 1 || rain.RampRate != 0.03 {
		t.Errorf("rain target/rate = %g/%g, expected 1/0.03", rain.Target, rain.RampRate)
	}
	if rain.Wind.X != 0.6 {
		t.Errorf("rain wind = %+v", rain.Wind)
	}
	dark, _ := e.Instance(active["darkness"])
	if dark.RampRate != 0.01 {
		t.Errorf("per-effect ramp ignored: %g", dark.RampRate)
	}
}

func TestApplyRetargetsSharedEffects(t *testing.T) {
	d, e := newTestDirector(t)

	d.Apply("drizzle")
	for i := 0; i < 100; i++ {
		e.Tick()
	}
	before := d.Active()

	d.Apply("storm")
	after := d.Active()

	if before["rain"] != after["rain"] {
		t.Errorf("rain restarted on preset change: %d -> %d", before["rain"], after["rain"])
	}
	rain, _ := e.Instance(after["rain"])
	if rain.Target != 1 {
		t.Errorf("rain not retargeted: target %g", rain.Target)
	}
	if rain.Intensity != 0.3 {
		t.Errorf("retarget should not jump intensity, got %g", rain.Intensity)
	}
}

func TestApplyFadesDroppedEffects(t *testing.T) {
	d, e := newTestDirector(t)

	d.Apply("storm")
	e.Tick()
	old := d.Active()

	if err := d.Apply("snowfall"); err != nil {
		t.Fatalf("Apply(snowfall) failed: %v", err)
	}

	for _, effect := range []string{"rain", "rain-mist", "darkness"} {
		if got := stateOf(t, e, old[effect]); got != fx.StateStopping {
			t.Errorf("%s state = %s, expected stopping", effect, got)
		}
	}
	active := d.Active()
	if len(active) != 1 {
		t.Errorf("active = %v, expected only snow", active)
	}
	if _, ok := active["snow"]; !ok {
		t.Error("snow not started")
	}
}

func TestApplyClearStopsEverything(t *testing.T) {
	d, e := newTestDirector(t)
	d.Apply("volcanic")
	e.Tick()
	d.Apply("clear")

	if len(d.Active()) != 0 {
		t.Errorf("clear left %v active", d.Active())
	}
	for i := 0; i < 2000 && e.Stats().Instances > 0; i++ {
		e.Tick()
	}
	if s := e.Stats(); s.Instances != 0 || s.Live != 0 {
		t.Errorf("instances=%d live=%d after fading out", s.Instances, s.Live)
	}
}

func TestApplyUnknownPreset(t *testing.T) {
	d, _ := newTestDirector(t)
	if err := d.Apply("monsoon"); err == nil {
		t.Error("Apply accepted an unknown preset")
	}
	if d.Preset() != "" {
		t.Errorf("failed Apply changed the preset to %q", d.Preset())
	}
}

func TestReapplyAfterStopStartsFresh(t *testing.T) {
	d, e := newTestDirector(t)
	d.Apply("snowfall")
	first := d.Active()["snow"]
	d.Apply("clear")
	d.Apply("snowfall")
	second := d.Active()["snow"]

	if first == second {
		t.Fatal("fading instance was reused")
	}
	if got := stateOf(t, e, first); got != fx.StateStopping {
		t.Errorf("old snow state = %s", got)
	}
}

func TestNextWraps(t *testing.T) {
	d, _ := newTestDirector(t)
	names := d.Presets()

	d.Apply(names[len(names)-1])
	if err := d.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if d.Preset() != names[0] {
		t.Errorf("Next after last = %q, expected %q", d.Preset(), names[0])
	}
	d.Next()
	if d.Preset() != names[1] {
		t.Errorf("Next = %q, expected %q", d.Preset(), names[1])
	}
}

func TestWindChanges(t *testing.T) {
	d, e := newTestDirector(t)
	d.Apply("heatwave")

	if w := d.RotateWind(); w.X != 0.2 || w.Y != 0 {
		t.Errorf("calm air rotated to %+v, expected a light breeze", w)
	}
	heat, _ := e.Instance(d.Active()["heat"])
	if heat.Wind.X != 0.2 {
		t.Errorf("wind not pushed to instance: %+v", heat.Wind)
	}

	d.SetWind(fx.Vec2{X: 1})
	w := d.RotateWind()
	if w.X <= 0 || w.X >= 1 || w.Y <= 0 {
		t.Errorf("rotated wind = %+v", w)
	}
}

func TestNudgeScalesTargets(t *testing.T) {
	d, e := newTestDirector(t)
	d.Apply("drizzle")

	tests := []struct {
		delta    float64
		expected float64
	}{
		{0.5, 1.5},
		{0.5, 1.5},
		{-1.0, 0.5},
		{-1.0, 0},
	}
	for _, tc := range tests {
		if got := d.Nudge(tc.delta); got != tc.expected {
			t.Errorf("Nudge(%g) = %g, expected %g", tc.delta, got, tc.expected)
		}
	}

	d.Nudge(1)
	rain, _ := e.Instance(d.Active()["rain"])
	if rain.Target != 0.3 {
		t.Errorf("rain target = %g, expected 0.3 at scale 1", rain.Target)
	}
	d.Nudge(0.5)
	rain, _ = e.Instance(d.Active()["rain"])
	if math.Abs(rain.Target-0.45) > 1e-9 {
		t.Errorf("rain target = %g, expected 0.45 at scale 1.5", rain.Target)
	}
}

func TestCycleAppliesPresets(t *testing.T) {
	cfg, _ := config.Parse(config.DefaultYAML())
	cfg.Cycle = config.CycleConfig{Enabled: true, Presets: []string{"drizzle", "snowfall"}, HoldTicks: 5}
	reg, _ := config.BuildRegistry(cfg)
	e := fx.NewEngine(reg, fx.Options{Capacity: 256})
	e.SetViewport(fx.Viewport{W: 40, H: 20})
	d := NewDirector(e, cfg, nil, nil)

	var seen []string
	for i := 0; i < 12; i++ {
		d.Update()
		e.Tick()
		if len(seen) == 0 || seen[len(seen)-1] != d.Preset() {
			seen = append(seen, d.Preset())
		}
	}
	expected := []string{"drizzle", "snowfall", "drizzle"}
	if len(seen) != len(expected) {
		t.Fatalf("presets seen = %v, expected %v", seen, expected)
	}
	for i := range expected {
		if seen[i] != expected[i] {
			t.Errorf("presets seen = %v, expected %v", seen, expected)
			break
		}
	}

	d.SetCycle(false)
	for i := 0; i < 10; i++ {
		d.Update()
		e.Tick()
	}
	if d.Preset() != "drizzle" {
		t.Errorf("disabled cycle still changed preset to %q", d.Preset())
	}
}

func TestSnapshotRestore(t *testing.T) {
	d, e := newTestDirector(t)
	d.Apply("storm")
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	preset, states := d.Snapshot()

	d2, e2 := newTestDirector(t)
	if err := d2.Restore(preset, states); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if d2.Preset() != "storm" {
		t.Errorf("Preset() = %q", d2.Preset())
	}
	if len(d2.Active()) != 3 {
		t.Fatalf("active after restore = %v", d2.Active())
	}
	rain, _ := e2.Instance(d2.Active()["rain"])
	orig, _ := e.Instance(d.Active()["rain"])
	if rain.Intensity != orig.Intensity || rain.Target != orig.Target {
		t.Errorf("rain restored as %g->%g, expected %g->%g", rain.Intensity, rain.Target, orig.Intensity, orig.Target)
	}
	if d2.Wind().X != 0.6 {
		t.Errorf("wind not restored: %+v", d2.Wind())
	}

	// The restored director transitions normally.
	d2.Apply("clear")
	if len(d2.Active()) != 0 {
		t.Error("restored effects were not adopted")
	}
}
