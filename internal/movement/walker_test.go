package movement

import (
	"testing"

	"github.com/vovakirdan/tui-weather/internal/fx"
)

type flatGround struct {
	width  int
	height int
	dusty  int // columns below this raise dust
}

func (g flatGround) Width() int { return g.width }
func (g flatGround) Surface(int) int { return g.height }
func (g flatGround) Footstep(x int) string {
	if x < g.dusty {
		return "dust"
	}
	return ""
}

func newTestEngine(t *testing.T) *fx.Engine {
	t.Helper()
	reg := fx.NewRegistry()
	err := reg.Register(fx.Definition{
		ID:    "dust",
		Layer: fx.LayerBelowCharacters,
		Space: fx.SpaceWorld,
		Appearance: fx.Appearance{
			Glyph:   ',',
			Scale:   fx.Fixed(1),
			Opacity: fx.Fixed(1),
		},
		Lifetime: fx.TickRange{Min: 5, Max: 5},
		Density:  fx.Density{Curve: fx.CurveLinear, Max: 2},
		Spawn:    fx.Spawn{Radius: 1},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	e := fx.NewEngine(reg, fx.Options{Capacity: 128, Seed: 1})
	e.SetViewport(fx.Viewport{W: 80, H: 24})
	return e
}

func TestWalkStridesRaiseDust(t *testing.T) {
	e := newTestEngine(t)
	w := NewWalker(e, flatGround{width: 100, height: 20, dusty: 50}, 10)

	strides := 0
	for i := 0; i < 8; i++ {
		if w.Walk(1) {
			strides++
		}
	}
	// 8 ticks at 0.5 cells per tick cover two strides of 2 cells.
	if strides != 2 || w.Steps() != 2 {
		t.Errorf("strides = %d, steps = %d, expected 2", strides, w.Steps())
	}
	if w.X != 14 {
		t.Errorf("X = %g, expected 14", w.X)
	}
	if w.Bursts() != 2 {
		t.Fatalf("Bursts() = %d, expected 2", w.Bursts())
	}

	for _, in := range e.Instances() {
		if !in.HasOrigin {
			t.Errorf("footstep instance %d has no origin", in.ID)
		}
		if in.Origin.Y != 19.5 {
			t.Errorf("origin y = %g, expected feet at 19.5", in.Origin.Y)
		}
	}
}

func TestBurstsStopAfterTheirTicks(t *testing.T) {
	e := newTestEngine(t)
	w := NewWalker(e, flatGround{width: 100, height: 20, dusty: 100}, 10)
	w.Stride = 0.5

	w.Walk(1)
	for i := 0; i < DefaultBurstTicks; i++ {
		e.Tick()
		w.Update()
	}
	if w.Bursts() != 0 {
		t.Fatalf("Bursts() = %d after %d ticks", w.Bursts(), DefaultBurstTicks)
	}
	if e.Stats().Spawned == 0 {
		t.Error("footstep spawned no particles")
	}

	// Particles outlive the burst and then the instance is swept.
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	if s := e.Stats(); s.Instances != 0 || s.Live != 0 {
		t.Errorf("instances=%d live=%d after burst expired", s.Instances, s.Live)
	}
}

func TestQuietGroundAndEdges(t *testing.T) {
	e := newTestEngine(t)
	w := NewWalker(e, flatGround{width: 20, height: 10, dusty: 0}, 1)

	for i := 0; i < 10; i++ {
		w.Walk(-1)
	}
	if w.X != 0 || w.Facing != -1 {
		t.Errorf("X = %g, Facing = %d", w.X, w.Facing)
	}
	// Pushing against the edge is not walking.
	if w.Steps() != 0 {
		t.Errorf("Steps() = %d at the map edge", w.Steps())
	}

	for i := 0; i < 100; i++ {
		w.Walk(1)
	}
	if w.X != 19 {
		t.Errorf("X = %g, expected clamp to 19", w.X)
	}
	if w.Steps() == 0 {
		t.Error("no steps counted")
	}
	if len(e.Instances()) != 0 {
		t.Error("quiet ground raised a burst")
	}
	if w.Walk(0) {
		t.Error("Walk(0) completed a stride")
	}
}
