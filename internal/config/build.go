package config

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
)

// BuildRegistry converts every effect into a validated fx.Definition.
func BuildRegistry(cfg Config) (*fx.Registry, error) {
	reg := fx.NewRegistry()
	for _, ec := range cfg.Effects {
		def, err := ec.Definition()
		if err != nil {
			return nil, fmt.Errorf("effect %q: %w", ec.ID, err)
		}
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("effect %q: %w", ec.ID, err)
		}
	}
	return reg, nil
}

// Definition converts the YAML form to an engine definition.
// Unset scale and opacity default to 1.
func (ec EffectConfig) Definition() (fx.Definition, error) {
	layer, err := fx.ParseLayer(ec.Layer)
	if err != nil {
		return fx.Definition{}, err
	}
	space, err := fx.ParseSpace(ec.Space)
	if err != nil {
		return fx.Definition{}, err
	}
	blend, err := fx.ParseBlendMode(ec.Blend)
	if err != nil {
		return fx.Definition{}, err
	}
	curve, err := fx.ParseCurveShape(ec.Density.Curve)
	if err != nil {
		return fx.Definition{}, err
	}
	region, err := fx.ParseSpawnRegion(ec.Spawn.Region)
	if err != nil {
		return fx.Definition{}, err
	}
	kind, err := fx.ParseOverlayKind(ec.Overlay.Kind)
	if err != nil {
		return fx.Definition{}, err
	}
	tint, err := core.ParseHex(ec.Tint)
	if err != nil {
		return fx.Definition{}, err
	}
	overlayTint, err := core.ParseHex(ec.Overlay.Tint)
	if err != nil {
		return fx.Definition{}, err
	}

	glyph := '*'
	if ec.Glyph != "" {
		glyph, _ = utf8.DecodeRuneInString(ec.Glyph)
	}

	m := ec.Motion
	return fx.Definition{
		ID:    ec.ID,
		Layer: layer,
		Space: space,
		Appearance: fx.Appearance{
			Texture: ec.Texture,
			Glyph:   glyph,
			Tint:    tint,
			Scale:   orOne(ec.Scale),
			Opacity: orOne(ec.Opacity),
			Blend:   blend,
		},
		Motion: fx.Motion{
			VelocityX:     fx.Range(m.VelocityX),
			VelocityY:     fx.Range(m.VelocityY),
			AccelX:        m.AccelX,
			AccelY:        m.Gravity,
			WindFactor:    m.WindFactor,
			Drift:         m.Drift,
			Rotation:      fx.Range(m.Rotation),
			Spin:          fx.Range(m.Spin),
			SwayAmplitude: m.SwayAmplitude,
			SwayFrequency: m.SwayFrequency,
			MaxSpeed:      m.MaxSpeed,
		},
		Lifetime: fx.TickRange{
			Min: int(math.Round(ec.Lifetime.Min)),
			Max: int(math.Round(ec.Lifetime.Max)),
		},
		Fade:    fx.Fade{In: ec.Fade.In, Out: ec.Fade.Out},
		Density: fx.Density{Curve: curve, Max: ec.Density.Max, Steps: ec.Density.Steps},
		Spawn:   fx.Spawn{Region: region, Radius: ec.Spawn.Radius},
		Overlay: fx.Overlay{
			Kind:       kind,
			Tint:       overlayTint,
			Opacity:    ec.Overlay.Opacity,
			Distortion: ec.Overlay.Distortion,
		},
	}, nil
}

func orOne(r Range) fx.Range {
	if r.Min == 0 && r.Max == 0 {
		return fx.Fixed(1)
	}
	return fx.Range(r)
}

// EngineOptions maps the engine section to fx options. The logger is left
// for the caller.
func (c *Config) EngineOptions() fx.Options {
	return fx.Options{
		Capacity: c.Engine.Capacity,
		Margin:   c.Engine.Margin,
		Seed:     c.Engine.Seed,
	}
}
