// Package config loads effect definitions, weather presets and engine
// settings from YAML.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the whole effects file.
type Config struct {
	Engine  EngineConfig   `yaml:"engine"`
	Effects []EffectConfig `yaml:"effects"`
	Presets []PresetConfig `yaml:"presets"`
	Cycle   CycleConfig    `yaml:"cycle"`
}

// EngineConfig sizes the particle engine.
type EngineConfig struct {
	Capacity int     `yaml:"capacity"`  // particle pool slots
	Margin   float64 `yaml:"margin"`    // off-screen band in cells
	Seed     int64   `yaml:"seed"`      // 0 = time-based
	TickRate int     `yaml:"tick_rate"` // simulation ticks per second
}

// EffectConfig is the YAML form of an effect definition.
type EffectConfig struct {
	ID      string `yaml:"id"`
	Layer   string `yaml:"layer"` // background, below_characters, above_characters, foreground, overlay
	Space   string `yaml:"space"` // screen or world
	Texture string `yaml:"texture"`
	Glyph   string `yaml:"glyph"`
	Tint    string `yaml:"tint"` // #rrggbb
	Blend   string `yaml:"blend"`
	Scale   Range  `yaml:"scale"`
	Opacity Range  `yaml:"opacity"`

	Motion   MotionConfig  `yaml:"motion"`
	Lifetime Range         `yaml:"lifetime"` // ticks
	Fade     FadeConfig    `yaml:"fade"`
	Density  DensityConfig `yaml:"density"`
	Spawn    SpawnConfig   `yaml:"spawn"`
	Overlay  OverlayConfig `yaml:"overlay"`
}

// MotionConfig holds per-tick velocities and forces.
type MotionConfig struct {
	VelocityX     Range   `yaml:"velocity_x"`
	VelocityY     Range   `yaml:"velocity_y"`
	Gravity       float64 `yaml:"gravity"`
	AccelX        float64 `yaml:"accel_x"`
	WindFactor    float64 `yaml:"wind_factor"`
	Drift         float64 `yaml:"drift"`
	Rotation      Range   `yaml:"rotation"`
	Spin          Range   `yaml:"spin"`
	SwayAmplitude float64 `yaml:"sway_amplitude"`
	SwayFrequency float64 `yaml:"sway_frequency"`
	MaxSpeed      float64 `yaml:"max_speed"`
}

// FadeConfig is the fraction of lifetime spent fading in and out.
type FadeConfig struct {
	In  float64 `yaml:"in"`
	Out float64 `yaml:"out"`
}

// DensityConfig maps intensity to particles per tick.
type DensityConfig struct {
	Curve string  `yaml:"curve"` // linear, quadratic, stepped
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
}

// SpawnConfig controls where particles appear.
type SpawnConfig struct {
	Region string  `yaml:"region"` // viewport, top, bottom, windward
	Radius float64 `yaml:"radius"`
}

// OverlayConfig parameterises overlay-layer effects.
type OverlayConfig struct {
	Kind       string  `yaml:"kind"` // tint or distortion
	Tint       string  `yaml:"tint"`
	Opacity    float64 `yaml:"opacity"`
	Distortion float64 `yaml:"distortion"`
}

// PresetConfig is a named set of effects with shared wind.
type PresetConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Wind        WindConfig     `yaml:"wind"`
	Ramp        float64        `yaml:"ramp"` // default ramp rate per tick
	Effects     []PresetEffect `yaml:"effects"`
}

// PresetEffect is one effect inside a preset.
type PresetEffect struct {
	Effect    string  `yaml:"effect"`
	Intensity float64 `yaml:"intensity"`
	Ramp      float64 `yaml:"ramp"` // 0 = use the preset ramp
}

// WindConfig is a wind vector in cells per tick.
type WindConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Range accepts a scalar, a [min, max] pair or a {min, max} mapping.
type Range struct {
	Min float64
	Max float64
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		r.Min, r.Max = v, v
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		switch len(vs) {
		case 1:
			r.Min, r.Max = vs[0], vs[0]
		case 2:
			r.Min, r.Max = vs[0], vs[1]
		default:
			return fmt.Errorf("line %d: range needs 1 or 2 values, got %d", node.Line, len(vs))
		}
		return nil
	case yaml.MappingNode:
		var m struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		r.Min, r.Max = m.Min, m.Max
		return nil
	}
	return fmt.Errorf("line %d: invalid range", node.Line)
}

// MarshalYAML writes fixed ranges as scalars.
func (r Range) MarshalYAML() (any, error) {
	if r.Min == r.Max {
		return r.Min, nil
	}
	return []float64{r.Min, r.Max}, nil
}

// Preset returns the named preset.
func (c *Config) Preset(name string) (PresetConfig, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return PresetConfig{}, false
}

// PresetNames returns preset names in file order.
func (c *Config) PresetNames() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}
