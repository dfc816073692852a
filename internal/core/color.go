package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit terminal colour.
// The zero value means "terminal default" and is never blended.
type Color struct {
	R, G, B uint8
	Set     bool
}

// Predefined colours used by scenes and the HUD.
var (
	ColorDefault = Color{}
	ColorBlack   = RGB(0, 0, 0)
	ColorWhite   = RGB(255, 255, 255)
	ColorGray    = RGB(138, 138, 138)
	ColorRed     = RGB(205, 49, 49)
	ColorGreen   = RGB(80, 160, 80)
	ColorYellow  = RGB(229, 229, 16)
	ColorBlue    = RGB(36, 114, 200)
	ColorCyan    = RGB(17, 168, 205)
	ColorOrange  = RGB(255, 135, 0)
)

// RGB builds a set colour from its components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Set: true}
}

// ParseHex parses "#rrggbb" or "rrggbb". Empty input yields the default colour.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return ColorDefault, nil
	}
	if len(s) != 6 {
		return ColorDefault, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ColorDefault, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Hex returns the colour as "#rrggbb", or "" for the default colour.
func (c Color) Hex() string {
	if !c.Set {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp blends c towards to by t in [0, 1]. An unset c blends from black.
func (c Color) Lerp(to Color, t float64) Color {
	if !to.Set {
		return c
	}
	t = ClampF(t, 0, 1)
	return RGB(
		lerp8(c.R, to.R, t),
		lerp8(c.G, to.G, t),
		lerp8(c.B, to.B, t),
	)
}

// Add returns the saturating per-channel sum, used for additive blending.
func (c Color) Add(o Color, t float64) Color {
	if !o.Set {
		return c
	}
	t = ClampF(t, 0, 1)
	return RGB(
		add8(c.R, o.R, t),
		add8(c.G, o.G, t),
		add8(c.B, o.B, t),
	)
}

// Multiply darkens c by o, weighted by t.
func (c Color) Multiply(o Color, t float64) Color {
	if !o.Set {
		return c
	}
	m := RGB(
		uint8(int(c.R)*int(o.R)/255),
		uint8(int(c.G)*int(o.G)/255),
		uint8(int(c.B)*int(o.B)/255),
	)
	return c.Lerp(m, t)
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func add8(a, b uint8, t float64) uint8 {
	v := float64(a) + float64(b)*t
	if v > 255 {
		return 255
	}
	return uint8(v)
}
