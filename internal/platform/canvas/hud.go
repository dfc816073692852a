package canvas

import (
	"fmt"
	"math"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

var (
	hudFG    = core.RGB(230, 230, 230)
	hudBG    = core.RGB(20, 20, 30)
	hudWarn  = core.ColorOrange
	hudTitle = core.ColorCyan
)

// WindArrow returns an arrow pointing where the wind blows, or '·' for calm.
func WindArrow(w fx.Vec2) rune {
	if w.Len() < 0.01 {
		return '·'
	}
	arrows := [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}
	octant := int(math.Round(math.Atan2(w.Y, w.X) / (math.Pi / 4)))
	return arrows[core.Wrap(octant, len(arrows))]
}

// HUD draws the status bar on the top row and the pause box.
func HUD(dst *core.Screen, sc registry.Scene) {
	w := dst.Width()
	if w == 0 || dst.Height() == 0 {
		return
	}
	dst.FillBG(core.NewRect(0, 0, w, 1), hudBG)
	dst.DrawHLine(0, 0, w, ' ')

	state := sc.State()
	x := 1
	x = label(dst, x, sc.Title(), hudTitle)

	if d := sc.Weather(); d != nil {
		preset := state.Preset
		if preset == "" {
			preset = "-"
		}
		x = label(dst, x, " │ "+preset, hudFG)

		wind := d.Wind()
		x = label(dst, x, fmt.Sprintf(" │ wind %c %.2f", WindArrow(wind), wind.Len()), hudFG)
		x = label(dst, x, fmt.Sprintf(" │ x%.1f", d.Scale()), hudFG)

		st := d.Engine().Stats()
		fg := hudFG
		if st.Live >= st.Capacity {
			fg = hudWarn
		}
		label(dst, x, fmt.Sprintf(" │ %d/%d", st.Live, st.Capacity), fg)
	}

	if state.Message != "" {
		msg := " " + state.Message + " "
		dst.DrawTextFG(w-len([]rune(msg))-1, 0, msg, hudWarn)
	}

	if state.Paused {
		Message(dst, "PAUSED", "Press P to resume")
	}
}

func label(dst *core.Screen, x int, text string, fg core.Color) int {
	dst.DrawTextFG(x, 0, text, fg)
	return x + len([]rune(text))
}

// Message draws a centred box with a title and a subtitle.
func Message(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := core.Max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	box := core.NewRect(boxX, boxY, boxW, boxH)
	dst.DrawRect(box, ' ')
	dst.FillBG(box, hudBG)
	dst.DrawBox(box)

	dst.DrawTextFG(boxX+(boxW-len([]rune(title)))/2, boxY+1, title, hudTitle)
	dst.DrawTextFG(boxX+(boxW-len([]rune(subtitle)))/2, boxY+3, subtitle, hudFG)
}
