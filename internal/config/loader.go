package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the effects file looked up in the config directories.
const FileName = "effects.yaml"

// Load reads the effects configuration.
// Search order: customPath -> ~/.weather/effects.yaml -> ./configs/effects.yaml -> embedded default
func Load(customPath string) (Config, error) {
	// A custom path must exist and parse.
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if userCfgPath := userConfigPath(FileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", FileName)); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	cfg, err := Parse(defaultEffectsYAML)
	if err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes and validates an effects file, filling in engine defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.Capacity <= 0 {
		c.Engine.Capacity = DefaultCapacity
	}
	if c.Engine.Margin <= 0 {
		c.Engine.Margin = DefaultMargin
	}
	if c.Engine.TickRate <= 0 {
		c.Engine.TickRate = DefaultTickRate
	}
	if c.Cycle.HoldTicks <= 0 {
		c.Cycle.HoldTicks = DefaultHoldTicks
	}
}

// Validate checks cross references between presets, effects and the cycle.
// Per-effect field checks happen when the registry is built.
func (c *Config) Validate() error {
	var errs []error

	if !finite(c.Engine.Margin) || c.Engine.Margin < 0 {
		errs = append(errs, fmt.Errorf("engine: margin %g must be finite and not negative", c.Engine.Margin))
	}

	effects := make(map[string]bool, len(c.Effects))
	for i, e := range c.Effects {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("effects[%d]: missing id", i))
			continue
		}
		if effects[e.ID] {
			errs = append(errs, fmt.Errorf("effects[%d]: duplicate id %q", i, e.ID))
		}
		effects[e.ID] = true
	}

	presets := make(map[string]bool, len(c.Presets))
	for i, p := range c.Presets {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("presets[%d]: missing name", i))
			continue
		}
		if presets[p.Name] {
			errs = append(errs, fmt.Errorf("presets[%d]: duplicate name %q", i, p.Name))
		}
		presets[p.Name] = true

		if !finite(p.Ramp) || p.Ramp < 0 {
			errs = append(errs, fmt.Errorf("preset %q: ramp %g must be finite and not negative", p.Name, p.Ramp))
		}
		if !finite(p.Wind.X, p.Wind.Y) {
			errs = append(errs, fmt.Errorf("preset %q: wind must be finite", p.Name))
		}
		for _, pe := range p.Effects {
			if !effects[pe.Effect] {
				errs = append(errs, fmt.Errorf("preset %q: unknown effect %q", p.Name, pe.Effect))
			}
			if !(pe.Intensity >= 0 && pe.Intensity <= 1) {
				errs = append(errs, fmt.Errorf("preset %q: intensity %g for %q outside [0, 1]", p.Name, pe.Intensity, pe.Effect))
			}
			if !finite(pe.Ramp) || pe.Ramp < 0 {
				errs = append(errs, fmt.Errorf("preset %q: ramp %g for %q must be finite and not negative", p.Name, pe.Ramp, pe.Effect))
			}
		}
	}

	for _, name := range c.Cycle.Presets {
		if !presets[name] {
			errs = append(errs, fmt.Errorf("cycle: unknown preset %q", name))
		}
	}
	return errors.Join(errs...)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".weather", filename)
}
