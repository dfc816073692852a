// Package overworld implements scrolling landscape scenes. Each biome is a
// side-on map with a walker and a default weather preset.
package overworld

import (
	"github.com/vovakirdan/tui-weather/internal/core"
)

// Visual characters for rendering
const (
	WalkerHead = 'o'
	WalkerBody = 'Ʌ'
	WalkerStep = 'Λ'
	WaterChar  = '~'
)

// Prop is scenery standing on the surface, drawn bottom to top.
type Prop struct {
	Glyphs []rune
	Color  core.Color
	Chance float64 // per column
}

// Biome describes how a map looks and which weather it starts with.
type Biome struct {
	ID     string
	Title  string
	Preset string // default weather preset

	SkyTop     core.Color
	SkyHorizon core.Color
	Surface    rune
	SurfaceFG  core.Color
	Soil       rune
	SoilFG     core.Color
	SoilBG     core.Color

	Base      int     // surface rows above the bottom edge
	Amplitude int     // how far the surface may climb above Base
	Roughness float64 // chance per column that the height changes

	// WaterLine is the number of rows above the bottom that are flooded;
	// zero means dry land.
	WaterLine int
	WaterFG   core.Color
	WaterBG   core.Color

	Footstep string // effect raised by walking on land
	Props    []Prop
}

// Biomes are the registered scenes, in menu order.
var Biomes = []Biome{
	{
		ID:         "valley",
		Title:      "Green Valley",
		Preset:     "drizzle",
		SkyTop:     core.RGB(70, 110, 170),
		SkyHorizon: core.RGB(160, 190, 220),
		Surface:    '▀',
		SurfaceFG:  core.RGB(90, 160, 70),
		Soil:       '░',
		SoilFG:     core.RGB(110, 85, 55),
		SoilBG:     core.RGB(70, 50, 30),
		Base:       6,
		Amplitude:  5,
		Roughness:  0.35,
		Footstep:   "dust",
		Props: []Prop{
			{Glyphs: []rune{'"'}, Color: core.RGB(120, 190, 90), Chance: 0.2},
			{Glyphs: []rune{'|', '♣'}, Color: core.RGB(40, 120, 50), Chance: 0.05},
		},
	},
	{
		ID:         "tundra",
		Title:      "Frozen Tundra",
		Preset:     "snowfall",
		SkyTop:     core.RGB(120, 135, 160),
		SkyHorizon: core.RGB(205, 215, 230),
		Surface:    '▀',
		SurfaceFG:  core.RGB(240, 245, 255),
		Soil:       '▒',
		SoilFG:     core.RGB(190, 200, 215),
		SoilBG:     core.RGB(140, 150, 170),
		Base:       5,
		Amplitude:  3,
		Roughness:  0.2,
		Footstep:   "powder",
		Props: []Prop{
			{Glyphs: []rune{'|', '▲'}, Color: core.RGB(50, 90, 70), Chance: 0.04},
		},
	},
	{
		ID:         "forest",
		Title:      "Autumn Forest",
		Preset:     "autumn",
		SkyTop:     core.RGB(95, 120, 150),
		SkyHorizon: core.RGB(220, 190, 150),
		Surface:    '▀',
		SurfaceFG:  core.RGB(150, 95, 40),
		Soil:       '░',
		SoilFG:     core.RGB(95, 65, 40),
		SoilBG:     core.RGB(60, 40, 25),
		Base:       5,
		Amplitude:  4,
		Roughness:  0.3,
		Props: []Prop{
			{Glyphs: []rune{'|', '|', '♠'}, Color: core.RGB(190, 110, 30), Chance: 0.12},
			{Glyphs: []rune{'|', '♣'}, Color: core.RGB(170, 60, 30), Chance: 0.1},
		},
	},
	{
		ID:         "volcano",
		Title:      "Volcano Slopes",
		Preset:     "volcanic",
		SkyTop:     core.RGB(40, 20, 25),
		SkyHorizon: core.RGB(150, 60, 30),
		Surface:    '▀',
		SurfaceFG:  core.RGB(60, 55, 55),
		Soil:       '▓',
		SoilFG:     core.RGB(90, 30, 20),
		SoilBG:     core.RGB(35, 25, 25),
		Base:       7,
		Amplitude:  8,
		Roughness:  0.5,
		Footstep:   "dust",
		Props: []Prop{
			{Glyphs: []rune{'▲'}, Color: core.RGB(80, 70, 70), Chance: 0.08},
			{Glyphs: []rune{'≈'}, Color: core.ColorOrange, Chance: 0.04},
		},
	},
	{
		ID:         "coast",
		Title:      "Stormy Coast",
		Preset:     "storm",
		SkyTop:     core.RGB(50, 60, 75),
		SkyHorizon: core.RGB(130, 145, 160),
		Surface:    '▀',
		SurfaceFG:  core.RGB(210, 190, 140),
		Soil:       '░',
		SoilFG:     core.RGB(170, 150, 110),
		SoilBG:     core.RGB(120, 105, 75),
		Base:       5,
		Amplitude:  5,
		Roughness:  0.4,
		WaterLine:  6,
		WaterFG:    core.RGB(150, 200, 230),
		WaterBG:    core.RGB(30, 70, 110),
		Footstep:   "dust",
		Props: []Prop{
			{Glyphs: []rune{'|', '↑'}, Color: core.RGB(60, 140, 60), Chance: 0.03},
		},
	},
	{
		ID:         "desert",
		Title:      "Open Desert",
		Preset:     "sandstorm",
		SkyTop:     core.RGB(90, 140, 200),
		SkyHorizon: core.RGB(240, 210, 160),
		Surface:    '▀',
		SurfaceFG:  core.RGB(230, 195, 120),
		Soil:       '░',
		SoilFG:     core.RGB(200, 160, 95),
		SoilBG:     core.RGB(170, 130, 75),
		Base:       5,
		Amplitude:  6,
		Roughness:  0.25,
		Footstep:   "dust",
		Props: []Prop{
			{Glyphs: []rune{'Ψ'}, Color: core.RGB(70, 140, 70), Chance: 0.03},
		},
	},
}

// Lookup returns the biome with the given id.
func Lookup(id string) (Biome, bool) {
	for _, b := range Biomes {
		if b.ID == id {
			return b, true
		}
	}
	return Biome{}, false
}

// SkyAt returns the sky colour of row y on a screen of height h.
func (b *Biome) SkyAt(y, h int) core.Color {
	if h <= 1 {
		return b.SkyTop
	}
	return b.SkyTop.Lerp(b.SkyHorizon, float64(y)/float64(h-1))
}
