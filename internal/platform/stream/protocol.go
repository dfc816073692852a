// Package stream broadcasts a running scene to WebSocket viewers.
//
// The simulation runs on one goroutine owned by Server. Every few ticks the
// composed frame is encoded as JSON and fanned out through the Hub; viewers
// may send control messages back, which the simulation goroutine applies
// between ticks.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/fx"
	"github.com/vovakirdan/tui-weather/internal/registry"
)

// Message types.
const (
	TypeFrame   = "Frame"
	TypeControl = "Control"
	TypeStatus  = "Status"
	TypeError   = "Error"
)

// Envelope wraps every message on the wire.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FrameMsg is one composed tick.
type FrameMsg struct {
	Tick      uint64        `json:"tick"`
	Scene     string        `json:"scene"`
	Preset    string        `json:"preset"`
	Paused    bool          `json:"paused"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Rows      []string      `json:"rows"`
	WindX     float64       `json:"wind_x"`
	WindY     float64       `json:"wind_y"`
	Scale     float64       `json:"scale"`
	Stats     StatsMsg      `json:"stats"`
	Particles []ParticleMsg `json:"particles,omitempty"`
	Overlays  []OverlayMsg  `json:"overlays,omitempty"`
}

// StatsMsg mirrors fx.Stats.
type StatsMsg struct {
	Live      int    `json:"live"`
	Capacity  int    `json:"capacity"`
	Instances int    `json:"instances"`
	Spawned   uint64 `json:"spawned"`
	Expired   uint64 `json:"expired"`
	Dropped   uint64 `json:"dropped"`
}

// ParticleMsg is one draw instruction in screen cells.
type ParticleMsg struct {
	Layer    string  `json:"layer"`
	Texture  string  `json:"texture,omitempty"`
	Glyph    string  `json:"glyph"`
	Tint     string  `json:"tint,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation,omitempty"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
	Blend    string  `json:"blend"`
}

// OverlayMsg is one full-screen effect.
type OverlayMsg struct {
	Effect     string  `json:"effect"`
	Kind       string  `json:"kind"`
	Opacity    float64 `json:"opacity"`
	Tint       string  `json:"tint,omitempty"`
	Distortion float64 `json:"distortion,omitempty"`
	Blend      string  `json:"blend"`
}

// ControlMsg is sent by viewers to steer the weather.
// Zero fields are ignored.
type ControlMsg struct {
	Preset string   `json:"preset,omitempty"`
	Next   bool     `json:"next,omitempty"`
	Nudge  float64  `json:"nudge,omitempty"`
	Wind   *WindMsg `json:"wind,omitempty"`
	Rotate bool     `json:"rotate,omitempty"`
	Pause  bool     `json:"pause,omitempty"`
}

// WindMsg is an absolute wind vector.
type WindMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StatusMsg reports the outcome of a control message.
type StatusMsg struct {
	Message string `json:"message"`
}

// Encode wraps v in an envelope of the given type.
func Encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("stream: cannot encode %s: %w", typ, err)
	}
	out, err := json.Marshal(Envelope{Type: typ, Data: data})
	if err != nil {
		return nil, fmt.Errorf("stream: cannot encode envelope: %w", err)
	}
	return out, nil
}

// EncodeFrame builds the frame message for sc. scr must already hold the
// composed cells; particles are included when withParticles is set.
func EncodeFrame(sc registry.Scene, scr *core.Screen, frame *fx.Frame, withParticles bool) FrameMsg {
	state := sc.State()
	msg := FrameMsg{
		Scene:  sc.ID(),
		Preset: state.Preset,
		Paused: state.Paused,
		Width:  scr.Width(),
		Height: scr.Height(),
		Rows:   make([]string, scr.Height()),
	}
	for y := range msg.Rows {
		msg.Rows[y] = scr.Row(y)
	}

	if d := sc.Weather(); d != nil {
		w := d.Wind()
		msg.WindX, msg.WindY = w.X, w.Y
		msg.Scale = d.Scale()

		st := d.Engine().Stats()
		msg.Tick = st.Tick
		msg.Stats = StatsMsg{
			Live:      st.Live,
			Capacity:  st.Capacity,
			Instances: st.Instances,
			Spawned:   st.Spawned,
			Expired:   st.Expired,
			Dropped:   st.Dropped,
		}
	}

	if frame == nil {
		return msg
	}
	if withParticles {
		msg.Particles = make([]ParticleMsg, 0, frame.Count())
		for l := range frame.Layers {
			for _, d := range frame.Layers[l] {
				msg.Particles = append(msg.Particles, ParticleMsg{
					Layer:    fx.Layer(l).String(),
					Texture:  d.Texture,
					Glyph:    string(d.Glyph),
					Tint:     hex(d.Tint),
					X:        d.X,
					Y:        d.Y,
					Rotation: d.Rotation,
					Scale:    d.Scale,
					Opacity:  d.Opacity,
					Blend:    d.Blend.String(),
				})
			}
		}
	}
	for _, o := range frame.Overlays {
		msg.Overlays = append(msg.Overlays, OverlayMsg{
			Effect:     o.Effect,
			Kind:       o.Kind.String(),
			Opacity:    o.Opacity,
			Tint:       hex(o.Tint),
			Distortion: o.Distortion,
			Blend:      o.Blend.String(),
		})
	}
	return msg
}

func hex(c core.Color) string {
	if !c.Set {
		return ""
	}
	return c.Hex()
}
