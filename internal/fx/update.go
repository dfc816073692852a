package fx

import "math"

// Updater is the particle update loop.
type Updater struct {
	pool   *Pool
	margin float64
}

// NewUpdater creates an update loop over pool.
func NewUpdater(pool *Pool, margin float64) *Updater {
	return &Updater{pool: pool, margin: margin}
}

// Advance moves every live particle one tick and releases the ones that
// expired or left the viewport for good. Particles born this tick are left
// untouched. Every slot is visited; nothing is skipped for time budget.
func (u *Updater) Advance(tr *Transitions, vp Viewport, now uint64) (expired int) {
	p := u.pool
	for i := p.head; i != nilSlot; {
		next := p.next[i]
		part := &p.slots[i]
		if part.Born == now {
			i = next
			continue
		}

		in := tr.Get(part.Owner)
		if in == nil {
			// Orphans cannot be drawn; reclaim the slot.
			p.Release(int(i))
			expired++
			i = next
			continue
		}

		step(part, in)
		if part.Life <= 0 || u.gone(part, in.Def, vp) {
			p.Release(int(i))
			expired++
		}
		i = next
	}
	return expired
}

func step(p *Particle, in *Instance) {
	m := &in.Def.Motion

	p.VX += m.AccelX + in.Wind.X*m.Drift
	p.VY += m.AccelY + in.Wind.Y*m.Drift
	if m.MaxSpeed > 0 {
		if speed := math.Hypot(p.VX, p.VY); speed > m.MaxSpeed {
			k := m.MaxSpeed / speed
			p.VX *= k
			p.VY *= k
		}
	}

	p.X += p.VX
	p.Y += p.VY
	if m.SwayAmplitude != 0 {
		// Derivative of A*sin(wt+phase), so the offset stays bounded by A.
		w := m.SwayFrequency
		p.X += m.SwayAmplitude * w * math.Cos(float64(p.Age)*w+p.Phase)
	}
	p.Rotation += p.Spin

	p.Life--
	p.Age++
	p.Opacity = p.BaseOpacity * in.Def.Fade.Factor(p.Age, p.MaxLife)
}

// gone reports whether the particle is beyond the margin and still moving
// away from the viewport.
func (u *Updater) gone(p *Particle, def *Definition, vp Viewport) bool {
	x0, y0, x1, y1 := vp.Bounds(def.Space)
	m := u.margin
	switch {
	case p.Y > y1+m && p.VY >= 0:
		return true
	case p.Y < y0-m && p.VY <= 0:
		return true
	case p.X > x1+m && p.VX >= 0:
		return true
	case p.X < x0-m && p.VX <= 0:
		return true
	}
	return false
}
