package overworld

import (
	"math/rand"

	"github.com/vovakirdan/tui-weather/internal/core"
)

// WorldWidth is the map width in columns.
const WorldWidth = 480

// Column is one vertical slice of the map.
type Column struct {
	Surface int  // first solid row
	Water   bool // flooded above Surface
	Prop    int  // index into Biome.Props, -1 for none
}

// Terrain is a generated height map.
type Terrain struct {
	biome    *Biome
	width    int
	height   int
	waterRow int // first flooded row, or height when dry
	cols     []Column
}

// NewTerrain generates a map for biome with the given screen height.
// The same seed always produces the same map.
func NewTerrain(b *Biome, width, height int, seed int64) *Terrain {
	rng := rand.New(rand.NewSource(seed))

	// Keep at least a third of the screen as sky.
	top := core.Max(height/3, height-b.Base-b.Amplitude)
	bottom := core.Max(top, height-b.Base)

	raw := make([]int, width)
	h := bottom
	for x := range raw {
		if rng.Float64() < b.Roughness {
			h += rng.Intn(3) - 1
		}
		h = core.Clamp(h, top, bottom)
		raw[x] = h
	}

	t := &Terrain{
		biome:    b,
		width:    width,
		height:   height,
		waterRow: height,
		cols:     make([]Column, width),
	}
	if b.WaterLine > 0 {
		t.waterRow = height - b.WaterLine
	}

	for x := range t.cols {
		// Three-tap smoothing removes single-column spikes.
		sum := raw[x]
		n := 1
		if x > 0 {
			sum += raw[x-1]
			n++
		}
		if x < width-1 {
			sum += raw[x+1]
			n++
		}
		c := Column{Surface: core.Round(float64(sum) / float64(n)), Prop: -1}
		c.Water = c.Surface > t.waterRow

		if !c.Water {
			roll := rng.Float64()
			for i, p := range b.Props {
				if roll < p.Chance {
					c.Prop = i
					break
				}
				roll -= p.Chance
			}
		}
		t.cols[x] = c
	}
	return t
}

// Width is the number of columns.
func (t *Terrain) Width() int {
	return t.width
}

// Height is the number of rows.
func (t *Terrain) Height() int {
	return t.height
}

// Column returns column x, clamped to the map.
func (t *Terrain) Column(x int) Column {
	return t.cols[core.Clamp(x, 0, t.width-1)]
}

// Surface returns the row the walker stands on. Flooded columns are waded at
// the water line.
func (t *Terrain) Surface(x int) int {
	c := t.Column(x)
	if c.Water {
		return t.waterRow
	}
	return c.Surface
}

// Footstep returns the effect a step on column x raises.
func (t *Terrain) Footstep(x int) string {
	if t.Column(x).Water {
		return ""
	}
	return t.biome.Footstep
}

// WaterRow returns the first flooded row, or Height on dry maps.
func (t *Terrain) WaterRow() int {
	return t.waterRow
}
