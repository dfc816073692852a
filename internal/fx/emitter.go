package fx

import (
	"math"
	"math/rand"
)

// DefaultMargin is how far outside the viewport particles may spawn and live.
const DefaultMargin = 4.0

// Viewport is the camera rectangle in world coordinates.
type Viewport struct {
	X, Y float64
	W, H float64
}

// Bounds returns the viewport edges in the given space.
func (v Viewport) Bounds(space Space) (x0, y0, x1, y1 float64) {
	if space == SpaceWorld {
		return v.X, v.Y, v.X + v.W, v.Y + v.H
	}
	return 0, 0, v.W, v.H
}

// ToScreen converts a position in space to screen coordinates.
func (v Viewport) ToScreen(space Space, x, y float64) (float64, float64) {
	if space == SpaceWorld {
		return x - v.X, y - v.Y
	}
	return x, y
}

// Emitter is the emission scheduler: it turns instance intensity into new
// particles.
type Emitter struct {
	pool   *Pool
	rng    *rand.Rand
	margin float64
}

// NewEmitter creates a scheduler spawning into pool.
func NewEmitter(pool *Pool, rng *rand.Rand, margin float64) *Emitter {
	return &Emitter{pool: pool, rng: rng, margin: margin}
}

// Emit spawns this tick's particles for every instance that is not stopped.
// Once the pool is exhausted the remaining spawns of the tick are dropped,
// never queued.
func (e *Emitter) Emit(tr *Transitions, vp Viewport, now uint64) (spawned, dropped int) {
	exhausted := false
	for _, id := range tr.order {
		in := tr.table[id]
		if in.State == StateStopped || in.Def.IsOverlay() {
			continue
		}

		in.accum += in.Def.Density.Rate(in.Intensity)
		n := int(in.accum)
		if n <= 0 {
			continue
		}
		in.accum -= float64(n)

		if exhausted {
			dropped += n
			continue
		}
		for i := 0; i < n; i++ {
			slot, err := e.pool.Acquire(in.ID)
			if err != nil {
				exhausted = true
				dropped += n - i
				break
			}
			e.spawn(e.pool.At(slot), in, vp, now)
			spawned++
		}
	}
	return spawned, dropped
}

// spawn samples the definition's ranges into a freshly acquired slot.
func (e *Emitter) spawn(p *Particle, in *Instance, vp Viewport, now uint64) {
	def := in.Def
	m := &def.Motion

	p.VX = m.VelocityX.Sample(e.rng) + in.Wind.X*m.WindFactor
	p.VY = m.VelocityY.Sample(e.rng) + in.Wind.Y*m.WindFactor
	p.Rotation = m.Rotation.Sample(e.rng)
	p.Spin = m.Spin.Sample(e.rng)
	p.Scale = def.Appearance.Scale.Sample(e.rng)
	p.BaseOpacity = def.Appearance.Opacity.Sample(e.rng)
	p.Life = def.Lifetime.Sample(e.rng)
	p.MaxLife = p.Life
	p.Age = 0
	p.Born = now
	p.Phase = e.rng.Float64() * 2 * math.Pi
	p.Opacity = p.BaseOpacity * def.Fade.Factor(0, p.MaxLife)
	p.X, p.Y = e.position(in, vp)
}

// position picks a spawn point for the instance's region.
func (e *Emitter) position(in *Instance, vp Viewport) (float64, float64) {
	def := in.Def
	if in.HasOrigin {
		angle := e.rng.Float64() * 2 * math.Pi
		r := def.Spawn.Radius * math.Sqrt(e.rng.Float64())
		return in.Origin.X + r*math.Cos(angle), in.Origin.Y + r*math.Sin(angle)
	}

	x0, y0, x1, y1 := vp.Bounds(def.Space)
	m := e.margin
	between := func(lo, hi float64) float64 {
		return lo + e.rng.Float64()*(hi-lo)
	}

	switch def.Spawn.Region {
	case SpawnTop:
		return between(x0-m, x1+m), between(y0-m, y0)
	case SpawnBottom:
		return between(x0-m, x1+m), between(y1, y1+m)
	case SpawnWindward:
		switch {
		case in.Wind.X > 0:
			return between(x0-m, x0), between(y0-m, y1+m)
		case in.Wind.X < 0:
			return between(x1, x1+m), between(y0-m, y1+m)
		default:
			return between(x0-m, x1+m), between(y0-m, y0)
		}
	default:
		return between(x0-m, x1+m), between(y0-m, y1+m)
	}
}
