// Package fx is the weather and particle effects engine.
//
// Effects are declared as immutable Definitions in a Registry. Running
// occurrences are Instances driven through a small lifecycle by the
// transition manager. Each tick the engine ramps intensities, spawns
// particles into a fixed-capacity Pool, advances and retires them, and
// composes an ordered, layer-tagged Frame for a renderer adapter.
//
// The package has no rendering or terminal dependencies and runs entirely on
// the caller's goroutine.
package fx

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/vovakirdan/tui-weather/internal/core"
)

// Layer is a fixed-priority draw bucket. Lower values draw first.
type Layer int

const (
	LayerBackground      Layer = iota // behind the map
	LayerBelowCharacters              // over the map, under sprites
	LayerAboveCharacters              // over sprites
	LayerForeground                   // closest to the camera
	LayerOverlay                      // full-screen tint or distortion
)

// NumLayers is the number of draw buckets in a Frame.
const NumLayers = int(LayerOverlay) + 1

var layerNames = [NumLayers]string{
	"background",
	"below_characters",
	"above_characters",
	"foreground",
	"overlay",
}

func (l Layer) String() string {
	if l < 0 || int(l) >= NumLayers {
		return fmt.Sprintf("Layer(%d)", int(l))
	}
	return layerNames[l]
}

// ParseLayer converts a config name to a Layer.
func ParseLayer(s string) (Layer, error) {
	key := normalizeName(s)
	for i, name := range layerNames {
		if name == key {
			return Layer(i), nil
		}
	}
	switch key {
	case "", "fg":
		return LayerForeground, nil
	case "bg":
		return LayerBackground, nil
	case "full_screen_overlay", "screen":
		return LayerOverlay, nil
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// Space selects the coordinate system particles live in.
type Space int

const (
	// SpaceScreen particles stay put when the camera scrolls.
	SpaceScreen Space = iota
	// SpaceWorld particles are anchored to the map.
	SpaceWorld
)

func (s Space) String() string {
	if s == SpaceWorld {
		return "world"
	}
	return "screen"
}

// ParseSpace converts a config name to a Space.
func ParseSpace(s string) (Space, error) {
	switch normalizeName(s) {
	case "", "screen":
		return SpaceScreen, nil
	case "world", "map":
		return SpaceWorld, nil
	}
	return 0, fmt.Errorf("unknown space %q", s)
}

// BlendMode is passed through to the renderer.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

var blendNames = []string{"normal", "additive", "multiply", "screen"}

func (b BlendMode) String() string {
	if b < 0 || int(b) >= len(blendNames) {
		return fmt.Sprintf("BlendMode(%d)", int(b))
	}
	return blendNames[b]
}

// ParseBlendMode converts a config name to a BlendMode.
func ParseBlendMode(s string) (BlendMode, error) {
	key := normalizeName(s)
	if key == "" || key == "alpha" {
		return BlendNormal, nil
	}
	if key == "add" {
		return BlendAdditive, nil
	}
	for i, name := range blendNames {
		if name == key {
			return BlendMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown blend mode %q", s)
}

// CurveShape selects how intensity maps to spawn density.
type CurveShape int

const (
	CurveLinear CurveShape = iota
	CurveQuadratic
	CurveStepped
)

func (c CurveShape) String() string {
	switch c {
	case CurveLinear:
		return "linear"
	case CurveQuadratic:
		return "quadratic"
	case CurveStepped:
		return "stepped"
	default:
		return fmt.Sprintf("CurveShape(%d)", int(c))
	}
}

// ParseCurveShape converts a config name to a CurveShape.
func ParseCurveShape(s string) (CurveShape, error) {
	switch normalizeName(s) {
	case "", "linear":
		return CurveLinear, nil
	case "quadratic", "square":
		return CurveQuadratic, nil
	case "stepped", "step", "steps":
		return CurveStepped, nil
	}
	return 0, fmt.Errorf("unknown density curve %q", s)
}

// SpawnRegion selects where new particles appear relative to the viewport.
type SpawnRegion int

const (
	SpawnViewport SpawnRegion = iota // anywhere in viewport + margin
	SpawnTop                         // margin band above the top edge
	SpawnBottom                      // margin band below the bottom edge
	SpawnWindward                    // side band the wind blows from
)

func (r SpawnRegion) String() string {
	switch r {
	case SpawnViewport:
		return "viewport"
	case SpawnTop:
		return "top"
	case SpawnBottom:
		return "bottom"
	case SpawnWindward:
		return "windward"
	default:
		return fmt.Sprintf("SpawnRegion(%d)", int(r))
	}
}

// ParseSpawnRegion converts a config name to a SpawnRegion.
func ParseSpawnRegion(s string) (SpawnRegion, error) {
	switch normalizeName(s) {
	case "", "viewport", "anywhere":
		return SpawnViewport, nil
	case "top":
		return SpawnTop, nil
	case "bottom":
		return SpawnBottom, nil
	case "windward", "wind":
		return SpawnWindward, nil
	}
	return 0, fmt.Errorf("unknown spawn region %q", s)
}

// OverlayKind is the type of full-screen effect an overlay definition makes.
type OverlayKind int

const (
	OverlayTint OverlayKind = iota
	OverlayDistortion
)

func (k OverlayKind) String() string {
	if k == OverlayDistortion {
		return "distortion"
	}
	return "tint"
}

// ParseOverlayKind converts a config name to an OverlayKind.
func ParseOverlayKind(s string) (OverlayKind, error) {
	switch normalizeName(s) {
	case "", "tint", "fog", "darken":
		return OverlayTint, nil
	case "distortion", "haze", "heat":
		return OverlayDistortion, nil
	}
	return 0, fmt.Errorf("unknown overlay kind %q", s)
}

// Range is an inclusive float interval sampled uniformly.
type Range struct {
	Min, Max float64
}

// Fixed returns a degenerate range.
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

// Sample returns a value in [Min, Max].
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Mid returns the centre of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) valid() bool {
	return finite(r.Min, r.Max) && r.Min <= r.Max
}

// TickRange is an inclusive interval of ticks.
type TickRange struct {
	Min, Max int
}

// Sample returns a tick count in [Min, Max].
func (r TickRange) Sample(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// Density maps intensity in [0, 1] to particles per tick.
type Density struct {
	Curve CurveShape
	Max   float64 // particles per tick at intensity 1
	Steps int     // quantisation levels for CurveStepped
}

// Rate returns the (possibly fractional) spawn rate at the given intensity.
func (d Density) Rate(intensity float64) float64 {
	i := core.ClampF(intensity, 0, 1)
	switch d.Curve {
	case CurveQuadratic:
		return d.Max * i * i
	case CurveStepped:
		steps := d.Steps
		if steps < 1 {
			steps = 1
		}
		return d.Max * math.Floor(i*float64(steps)+1e-9) / float64(steps)
	default:
		return d.Max * i
	}
}

// Appearance describes how a particle looks.
type Appearance struct {
	Texture string     // renderer texture reference
	Glyph   rune       // character used by terminal renderers
	Tint    core.Color // base colour
	Scale   Range
	Opacity Range
	Blend   BlendMode
}

// Motion describes how a particle moves. Units are cells per tick.
type Motion struct {
	VelocityX Range
	VelocityY Range
	AccelX    float64 // constant acceleration, e.g. gravity on AccelY
	AccelY    float64
	// WindFactor scales the instance wind into the initial velocity.
	WindFactor float64
	// Drift scales the instance wind into a per-tick acceleration.
	Drift float64
	// Rotation is the initial angle in radians, Spin the angle change per tick.
	Rotation Range
	Spin     Range
	// Sway adds a horizontal oscillation (snowflakes, leaves).
	SwayAmplitude float64
	SwayFrequency float64 // radians per tick
	// MaxSpeed clamps the velocity magnitude when positive.
	MaxSpeed float64
}

// Fade is the portion of lifetime spent fading in and out.
type Fade struct {
	In  float64
	Out float64
}

// Factor returns the opacity multiplier for a particle of the given age.
func (f Fade) Factor(age, lifetime int) float64 {
	if lifetime <= 0 {
		return 0
	}
	t := float64(age) / float64(lifetime)
	factor := 1.0
	if f.In > 0 && t < f.In {
		factor = t / f.In
	}
	if f.Out > 0 && t > 1-f.Out {
		factor = math.Min(factor, (1-t)/f.Out)
	}
	return core.ClampF(factor, 0, 1)
}

// Spawn controls particle placement.
type Spawn struct {
	Region SpawnRegion
	// Radius is the scatter around an instance origin for localized bursts.
	Radius float64
}

// Overlay parameterises a full-screen overlay definition.
type Overlay struct {
	Kind       OverlayKind
	Tint       core.Color
	Opacity    float64 // opacity at intensity 1
	Distortion float64 // displacement in cells at intensity 1
}

// Definition is an immutable effect template.
type Definition struct {
	ID         string
	Layer      Layer
	Space      Space
	Appearance Appearance
	Motion     Motion
	Lifetime   TickRange
	Fade       Fade
	Density    Density
	Spawn      Spawn
	Overlay    Overlay
}

// IsOverlay reports whether the definition renders as a full-screen overlay
// rather than as particles.
func (d *Definition) IsOverlay() bool {
	return d.Layer == LayerOverlay
}

// Validate checks every recognised field.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if d.Layer < 0 || int(d.Layer) >= NumLayers {
		return d.invalid("layer", "unknown layer %d", int(d.Layer))
	}

	if d.IsOverlay() {
		if !(d.Overlay.Opacity >= 0 && d.Overlay.Opacity <= 1) {
			return d.invalid("overlay.opacity", "must be within [0, 1], got %g", d.Overlay.Opacity)
		}
		if !(d.Overlay.Distortion >= 0) || math.IsInf(d.Overlay.Distortion, 0) {
			return d.invalid("overlay.distortion", "must be finite and not negative")
		}
		return nil
	}

	if d.Lifetime.Min < 1 {
		return d.invalid("lifetime", "minimum must be at least 1 tick, got %d", d.Lifetime.Min)
	}
	if d.Lifetime.Max < d.Lifetime.Min {
		return d.invalid("lifetime", "max %d is below min %d", d.Lifetime.Max, d.Lifetime.Min)
	}
	if !(d.Density.Max >= 0) || math.IsInf(d.Density.Max, 0) {
		return d.invalid("density.max", "must be finite and non-negative")
	}
	if d.Density.Curve == CurveStepped && d.Density.Steps < 1 {
		return d.invalid("density.steps", "stepped curve needs at least one step")
	}
	if !(d.Fade.In >= 0 && d.Fade.Out >= 0 && d.Fade.In+d.Fade.Out <= 1) {
		return d.invalid("fade", "in and out must be non-negative and sum to at most 1")
	}
	if !(d.Spawn.Radius >= 0) || math.IsInf(d.Spawn.Radius, 0) {
		return d.invalid("spawn.radius", "must be finite and not negative")
	}

	scalars := []struct {
		field string
		v     float64
	}{
		{"motion.accel_x", d.Motion.AccelX},
		{"motion.accel_y", d.Motion.AccelY},
		{"motion.wind_factor", d.Motion.WindFactor},
		{"motion.drift", d.Motion.Drift},
		{"motion.sway_amplitude", d.Motion.SwayAmplitude},
		{"motion.sway_frequency", d.Motion.SwayFrequency},
		{"motion.max_speed", d.Motion.MaxSpeed},
	}
	for _, sc := range scalars {
		if !finite(sc.v) {
			return d.invalid(sc.field, "must be finite, got %g", sc.v)
		}
	}

	ranges := []struct {
		field string
		r     Range
	}{
		{"appearance.scale", d.Appearance.Scale},
		{"appearance.opacity", d.Appearance.Opacity},
		{"motion.velocity_x", d.Motion.VelocityX},
		{"motion.velocity_y", d.Motion.VelocityY},
		{"motion.rotation", d.Motion.Rotation},
		{"motion.spin", d.Motion.Spin},
	}
	for _, rc := range ranges {
		if !rc.r.valid() {
			return d.invalid(rc.field, "needs finite bounds with min <= max, got [%g, %g]", rc.r.Min, rc.r.Max)
		}
	}
	if d.Appearance.Opacity.Min < 0 || d.Appearance.Opacity.Max > 1 {
		return d.invalid("appearance.opacity", "must be within [0, 1]")
	}
	if d.Appearance.Scale.Min < 0 {
		return d.invalid("appearance.scale", "must not be negative")
	}
	return nil
}

func (d *Definition) invalid(field, format string, args ...any) error {
	return &ValidationError{Effect: d.ID, Field: field, Message: fmt.Sprintf(format, args...)}
}

// normalizeName lowercases and maps '-' and ' ' to '_'.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
