package fx

import (
	"errors"
	"fmt"
)

// InstanceState is the persisted form of one running effect.
// Particles are not persisted; they are re-emitted after a restore.
type InstanceState struct {
	Effect    string  `yaml:"effect" json:"effect"`
	Intensity float64 `yaml:"intensity" json:"intensity"`
	Target    float64 `yaml:"target" json:"target"`
	RampRate  float64 `yaml:"ramp_rate" json:"ramp_rate"`
	WindX     float64 `yaml:"wind_x" json:"wind_x"`
	WindY     float64 `yaml:"wind_y" json:"wind_y"`
	State     string  `yaml:"state" json:"state"`
}

// Snapshot captures the instances that are still producing weather.
// Stopped instances and localized bursts are left out.
func (e *Engine) Snapshot() []InstanceState {
	out := make([]InstanceState, 0, e.transitions.Len())
	e.transitions.Each(func(in *Instance) {
		if in.State == StateStopped || in.HasOrigin {
			return
		}
		out = append(out, InstanceState{
			Effect:    in.Def.ID,
			Intensity: in.Intensity,
			Target:    in.Target,
			RampRate:  in.RampRate,
			WindX:     in.Wind.X,
			WindY:     in.Wind.Y,
			State:     in.State.String(),
		})
	})
	return out
}

// Restore replaces the running effects with states. Each entry is replayed
// through Start at its current intensity, then SetIntensity or Stop towards
// its target. Entries that fail are skipped and reported together.
func (e *Engine) Restore(states []InstanceState) error {
	e.Reset()

	var errs []error
	for i, st := range states {
		state, err := ParseState(st.State)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i, st.Effect, err))
			continue
		}
		if state == StateStopped {
			continue
		}

		wind := Vec2{X: st.WindX, Y: st.WindY}
		id, err := e.Start(st.Effect, st.Intensity, 0, wind)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		// Resume at the saved intensity rather than ramping up from 0.
		in := e.transitions.Get(id)
		in.Intensity = in.Target

		if state == StateStopping {
			if st.RampRate == 0 {
				// A zero rate would cut the effect off instantly.
				err = e.Stop(id, st.Intensity)
			} else {
				err = e.Stop(id, st.RampRate)
			}
		} else {
			err = e.SetIntensity(id, st.Target, st.RampRate)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
