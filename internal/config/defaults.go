package config

import (
	_ "embed"
)

//go:embed defaults/effects.yaml
var defaultEffectsYAML []byte

// Engine defaults used when the file leaves a field unset.
const (
	DefaultCapacity  = 2048
	DefaultMargin    = 4.0
	DefaultTickRate  = 30
	DefaultHoldTicks = 900 // 30 seconds at the default tick rate
)

// DefaultYAML returns the embedded effects file, e.g. for `weather effects --dump`.
func DefaultYAML() []byte {
	return defaultEffectsYAML
}

// Default returns a minimal hardcoded configuration: rain and snow with a
// clear preset to fall back to.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Capacity: DefaultCapacity,
			Margin:   DefaultMargin,
			TickRate: DefaultTickRate,
		},
		Effects: []EffectConfig{
			{
				ID:       "rain",
				Layer:    "foreground",
				Glyph:    "|",
				Tint:     "#6fa8dc",
				Opacity:  Range{Min: 0.6, Max: 1},
				Motion:   MotionConfig{VelocityY: Range{Min: 1.2, Max: 1.6}, WindFactor: 1},
				Lifetime: Range{Min: 20, Max: 30},
				Density:  DensityConfig{Curve: "linear", Max: 4},
				Spawn:    SpawnConfig{Region: "top"},
			},
			{
				ID:       "snow",
				Layer:    "above_characters",
				Glyph:    "*",
				Tint:     "#f0f0f0",
				Opacity:  Range{Min: 0.7, Max: 1},
				Motion:   MotionConfig{VelocityY: Range{Min: 0.2, Max: 0.4}, WindFactor: 0.5, SwayAmplitude: 0.6, SwayFrequency: 0.15},
				Lifetime: Range{Min: 80, Max: 120},
				Fade:     FadeConfig{In: 0.1, Out: 0.2},
				Density:  DensityConfig{Curve: "linear", Max: 1.5},
				Spawn:    SpawnConfig{Region: "top"},
			},
		},
		Presets: []PresetConfig{
			{Name: "clear", Description: "No weather", Ramp: 0.02},
			{
				Name:        "rain",
				Description: "Steady rain",
				Ramp:        0.02,
				Effects:     []PresetEffect{{Effect: "rain", Intensity: 0.8}},
			},
			{
				Name:        "snow",
				Description: "Light snowfall",
				Ramp:        0.02,
				Effects:     []PresetEffect{{Effect: "snow", Intensity: 0.7}},
			},
		},
		Cycle: CycleConfig{
			Presets:   []string{"clear", "rain", "snow"},
			HoldTicks: DefaultHoldTicks,
		},
	}
}
