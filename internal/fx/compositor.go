package fx

import (
	"github.com/vovakirdan/tui-weather/internal/core"
)

// DrawInstruction is one particle ready for a renderer, in screen
// coordinates.
type DrawInstruction struct {
	Texture  string
	Glyph    rune
	Tint     core.Color
	X, Y     float64
	Rotation float64
	Scale    float64
	Opacity  float64
	Blend    BlendMode
	Instance InstanceID
}

// OverlayInstruction is a full-screen tint or distortion. Its strength is
// already scaled by the instance intensity.
type OverlayInstruction struct {
	Kind       OverlayKind
	Instance   InstanceID
	Effect     string
	Intensity  float64
	Opacity    float64
	Tint       core.Color
	Distortion float64
	Blend      BlendMode
}

// Frame is the compositor output for one tick.
//
// The engine reuses a Frame between ticks; renderers running on another
// goroutine must work from Clone.
type Frame struct {
	Tick     uint64
	Viewport Viewport
	Layers   [NumLayers][]DrawInstruction
	Overlays []OverlayInstruction
}

// Layer returns the draw list for l in spawn order.
func (f *Frame) Layer(l Layer) []DrawInstruction {
	if l < 0 || int(l) >= NumLayers {
		return nil
	}
	return f.Layers[l]
}

// Count returns the number of particle draw instructions.
func (f *Frame) Count() int {
	n := 0
	for i := range f.Layers {
		n += len(f.Layers[i])
	}
	return n
}

// Clone returns a deep copy that is safe to keep after the next tick.
func (f *Frame) Clone() *Frame {
	out := &Frame{Tick: f.Tick, Viewport: f.Viewport}
	for i := range f.Layers {
		if len(f.Layers[i]) > 0 {
			out.Layers[i] = append([]DrawInstruction(nil), f.Layers[i]...)
		}
	}
	if len(f.Overlays) > 0 {
		out.Overlays = append([]OverlayInstruction(nil), f.Overlays...)
	}
	return out
}

// Compositor buckets live particles by layer.
type Compositor struct {
	frame Frame
}

// NewCompositor creates a compositor with buffers sized for capacity.
func NewCompositor(capacity int) *Compositor {
	c := &Compositor{}
	per := capacity / NumLayers
	for i := range c.frame.Layers {
		c.frame.Layers[i] = make([]DrawInstruction, 0, per)
	}
	return c
}

// Compose rebuilds the frame in place and returns it.
func (c *Compositor) Compose(pool *Pool, tr *Transitions, vp Viewport, now uint64) *Frame {
	f := &c.frame
	f.Tick = now
	f.Viewport = vp
	for i := range f.Layers {
		f.Layers[i] = f.Layers[i][:0]
	}
	f.Overlays = f.Overlays[:0]

	for _, id := range tr.order {
		in := tr.table[id]
		if !in.Def.IsOverlay() || in.Intensity <= 0 {
			continue
		}
		ov := &in.Def.Overlay
		f.Overlays = append(f.Overlays, OverlayInstruction{
			Kind:       ov.Kind,
			Instance:   in.ID,
			Effect:     in.Def.ID,
			Intensity:  in.Intensity,
			Opacity:    ov.Opacity * in.Intensity,
			Tint:       ov.Tint,
			Distortion: ov.Distortion * in.Intensity,
			Blend:      in.Def.Appearance.Blend,
		})
	}

	for i := pool.head; i != nilSlot; i = pool.next[i] {
		p := &pool.slots[i]
		in := tr.Get(p.Owner)
		if in == nil || p.Life <= 0 {
			continue
		}
		def := in.Def
		x, y := vp.ToScreen(def.Space, p.X, p.Y)
		f.Layers[def.Layer] = append(f.Layers[def.Layer], DrawInstruction{
			Texture:  def.Appearance.Texture,
			Glyph:    def.Appearance.Glyph,
			Tint:     def.Appearance.Tint,
			X:        x,
			Y:        y,
			Rotation: p.Rotation,
			Scale:    p.Scale,
			Opacity:  p.Opacity,
			Blend:    def.Appearance.Blend,
			Instance: in.ID,
		})
	}
	return f
}

// Frame returns the last composed frame.
func (c *Compositor) Frame() *Frame {
	return &c.frame
}
