// Package movement moves the scene character across the terrain and kicks up
// footstep bursts in the weather engine.
package movement

import (
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
)

// Ground is the terrain the walker stands on.
type Ground interface {
	// Width is the number of world columns.
	Width() int
	// Surface returns the first solid row of column x.
	Surface(x int) int
	// Footstep returns the effect a step on column x raises, or "".
	Footstep(x int) string
}

// Defaults for NewWalker.
const (
	DefaultSpeed      = 0.5 // cells per tick
	DefaultStride     = 2.0 // cells between footsteps
	DefaultBurstTicks = 3
)

type burst struct {
	id    fx.InstanceID
	until uint64
}

// Walker is the scene character.
type Walker struct {
	X      float64
	Facing int // -1 left, 1 right

	Speed      float64
	Stride     float64
	BurstTicks uint64

	engine *fx.Engine
	ground Ground
	walked float64
	steps  int
	bursts []burst
}

// NewWalker places a walker at column x.
func NewWalker(engine *fx.Engine, ground Ground, x float64) *Walker {
	return &Walker{
		X:          x,
		Facing:     1,
		Speed:      DefaultSpeed,
		Stride:     DefaultStride,
		BurstTicks: DefaultBurstTicks,
		engine:     engine,
		ground:     ground,
	}
}

// Column returns the world column under the walker.
func (w *Walker) Column() int {
	return core.Clamp(int(w.X), 0, w.ground.Width()-1)
}

// Feet returns the world row the walker stands in.
func (w *Walker) Feet() int {
	return w.ground.Surface(w.Column()) - 1
}

// Steps returns how many footsteps have been taken.
func (w *Walker) Steps() int {
	return w.steps
}

// Walk moves one tick in direction dir (-1 or 1). It returns true when the
// move completed a stride.
func (w *Walker) Walk(dir int) bool {
	if dir == 0 {
		return false
	}
	if dir < 0 {
		dir = -1
	} else {
		dir = 1
	}
	w.Facing = dir

	maxX := float64(w.ground.Width() - 1)
	next := core.ClampF(w.X+float64(dir)*w.Speed, 0, maxX)
	moved := next - w.X
	if moved < 0 {
		moved = -moved
	}
	w.X = next
	if moved == 0 {
		return false
	}

	w.walked += moved
	if w.walked < w.Stride {
		return false
	}
	w.walked -= w.Stride
	w.steps++
	w.footstep()
	return true
}

func (w *Walker) footstep() {
	effect := w.ground.Footstep(w.Column())
	if effect == "" || !w.engine.Registry().Has(effect) {
		return
	}
	origin := fx.Vec2{X: w.X, Y: float64(w.Feet()) + 0.5}
	id, err := w.engine.StartAt(effect, 1, 0, fx.Vec2{}, origin)
	if err != nil {
		return
	}
	w.bursts = append(w.bursts, burst{id: id, until: w.engine.Now() + w.BurstTicks})
}

// Update ends bursts that have run their course. Call it once per tick.
func (w *Walker) Update() {
	now := w.engine.Now()
	kept := w.bursts[:0]
	for _, b := range w.bursts {
		if now >= b.until {
			w.engine.Stop(b.id, 0)
			continue
		}
		kept = append(kept, b)
	}
	w.bursts = kept
}

// Bursts returns the number of footstep bursts still emitting.
func (w *Walker) Bursts() int {
	return len(w.bursts)
}
