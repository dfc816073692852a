package fx

import (
	"testing"

	"github.com/vovakirdan/tui-weather/internal/core"
)

// rainDef is a still rain definition: 0.5 particles per tick at full
// intensity, living 40-60 ticks, with no motion so nothing leaves the screen.
func rainDef() Definition {
	return Definition{
		ID:    "rain",
		Layer: LayerForeground,
		Appearance: Appearance{
			Glyph:   '|',
			Tint:    core.ColorBlue,
			Scale:   Fixed(1),
			Opacity: Fixed(1),
		},
		Lifetime: TickRange{Min: 40, Max: 60},
		Density:  Density{Curve: CurveLinear, Max: 0.5},
	}
}

func newTestRegistry(t *testing.T, defs ...Definition) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatalf("Register(%q) failed: %v", def.ID, err)
		}
	}
	return reg
}

func newTestEngine(t *testing.T, capacity int, defs ...Definition) *Engine {
	t.Helper()
	e := NewEngine(newTestRegistry(t, defs...), Options{Capacity: capacity, Seed: 42})
	e.SetViewport(Viewport{W: 80, H: 24})
	return e
}
