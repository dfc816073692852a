// Package canvas draws a scene and its weather frame into a core.Screen.
//
// Layers are interleaved with the scene's own drawing:
//
//	background particles, map, below-characters particles, actors,
//	above-characters particles, foreground particles, overlays
//
// Each platform turns the resulting cells into terminal output, pixels or
// JSON.
package canvas

import (
	"math"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

// minOpacity is the faintest particle worth a cell.
const minOpacity = 0.05

// Scene draws sc and frame into dst. A nil frame draws the scene only.
func Scene(dst *core.Screen, sc registry.Scene, frame *fx.Frame) {
	dst.Clear()
	if frame == nil {
		sc.RenderMap(dst)
		sc.RenderActors(dst)
		return
	}

	Particles(dst, frame.Layer(fx.LayerBackground))
	sc.RenderMap(dst)
	Particles(dst, frame.Layer(fx.LayerBelowCharacters))
	sc.RenderActors(dst)
	Particles(dst, frame.Layer(fx.LayerAboveCharacters))
	Particles(dst, frame.Layer(fx.LayerForeground))
	Overlays(dst, frame.Overlays, frame.Tick)
}

// Particles draws instructions in order, so later ones win a shared cell.
func Particles(dst *core.Screen, list []fx.DrawInstruction) {
	for i := range list {
		Particle(dst, &list[i])
	}
}

// Particle blends one instruction into the cell under it.
func Particle(dst *core.Screen, d *fx.DrawInstruction) {
	if d.Opacity < minOpacity {
		return
	}
	x, y := int(math.Floor(d.X)), int(math.Floor(d.Y))
	c := dst.CellAt(x, y)
	if c == nil {
		return
	}

	tint := d.Tint
	if !tint.Set {
		tint = core.ColorWhite
	}
	glyph := Glyph(d.Glyph, d.Rotation, d.Scale)
	under := background(c)

	switch d.Blend {
	case fx.BlendAdditive:
		base := under
		if c.Rune != ' ' && c.FG.Set {
			base = c.FG
		}
		c.FG = base.Add(tint, d.Opacity)
	case fx.BlendMultiply:
		c.FG = under.Multiply(tint, d.Opacity)
		if c.BG.Set {
			c.BG = c.BG.Multiply(tint, d.Opacity*0.5)
		}
	case fx.BlendScreen:
		c.FG = lighten(under, tint, d.Opacity)
	default:
		c.FG = under.Lerp(tint, d.Opacity)
	}
	c.Rune = glyph
}

// Glyph adapts a particle glyph to its rotation and scale. Line glyphs turn
// with the particle; tiny particles shrink to a dot.
func Glyph(g rune, rotation, scale float64) rune {
	if scale > 0 && scale < 0.5 {
		return '.'
	}
	lines := [4]rune{'|', '/', '-', '\\'}
	start := -1
	for i, r := range lines {
		if r == g {
			start = i
			break
		}
	}
	if start < 0 || rotation == 0 {
		return g
	}
	// Four line glyphs cover half a turn.
	step := int(math.Round(rotation / (math.Pi / 4)))
	return lines[core.Wrap(start+step, len(lines))]
}

// Overlays applies full-screen effects in order.
func Overlays(dst *core.Screen, list []fx.OverlayInstruction, tick uint64) {
	for i := range list {
		o := &list[i]
		switch o.Kind {
		case fx.OverlayDistortion:
			distort(dst, o.Distortion, tick)
			tintScreen(dst, o.Tint, o.Opacity, o.Blend)
		default:
			tintScreen(dst, o.Tint, o.Opacity, o.Blend)
		}
	}
}

func tintScreen(dst *core.Screen, tint core.Color, opacity float64, blend fx.BlendMode) {
	if !tint.Set || opacity <= 0 {
		return
	}
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			c := dst.CellAt(x, y)
			bg := background(c)
			fg := c.FG
			if !fg.Set {
				fg = core.ColorGray
			}
			switch blend {
			case fx.BlendMultiply:
				c.BG = bg.Multiply(tint, opacity)
				c.FG = fg.Multiply(tint, opacity)
			case fx.BlendAdditive:
				c.BG = bg.Add(tint, opacity)
				c.FG = fg.Add(tint, opacity)
			case fx.BlendScreen:
				c.BG = lighten(bg, tint, opacity)
				c.FG = lighten(fg, tint, opacity)
			default:
				c.BG = bg.Lerp(tint, opacity)
				c.FG = fg.Lerp(tint, opacity*0.5)
			}
		}
	}
}

// distort shifts rows sideways by a sine wave that drifts with the tick.
func distort(dst *core.Screen, amount float64, tick uint64) {
	if amount <= 0 {
		return
	}
	w := dst.Width()
	row := make([]core.Cell, w)
	for y := 0; y < dst.Height(); y++ {
		shift := core.Round(amount * math.Sin(float64(tick)*0.3+float64(y)*0.7))
		if shift == 0 {
			continue
		}
		for x := 0; x < w; x++ {
			row[x] = dst.GetCell(core.Clamp(x-shift, 0, w-1), y)
		}
		for x := 0; x < w; x++ {
			dst.SetCell(x, y, row[x])
		}
	}
}

// background returns the colour a particle blends over. Unset backgrounds
// count as black.
func background(c *core.Cell) core.Color {
	if c.BG.Set {
		return c.BG
	}
	return core.ColorBlack
}

// lighten is the "screen" blend: 1-(1-a)(1-b), weighted by t.
func lighten(a, b core.Color, t float64) core.Color {
	ch := func(x, y uint8) uint8 {
		return 255 - uint8(int(255-x)*int(255-y)/255)
	}
	return a.Lerp(core.RGB(ch(a.R, b.R), ch(a.G, b.G), ch(a.B, b.B)), t)
}
