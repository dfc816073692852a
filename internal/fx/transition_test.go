package fx

import (
	"errors"
	"math"
	"testing"
)

func TestStartRampsToTarget(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	in, err := tr.Start("rain", 1, 0.1, Vec2{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if in.State != StateStarting || in.Intensity != 0 {
		t.Fatalf("new instance: state %s intensity %g", in.State, in.Intensity)
	}

	for tick := uint64(1); tick <= 10; tick++ {
		tr.Tick(tick)
		if tick < 10 && in.State != StateStarting {
			t.Errorf("tick %d: state %s before reaching target", tick, in.State)
		}
	}
	if in.Intensity != 1 {
		t.Errorf("Intensity after 10 ticks = %v, expected exactly 1", in.Intensity)
	}
	if in.State != StateSustaining {
		t.Errorf("State = %s, expected sustaining", in.State)
	}
}

func TestStartUnknownEffect(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t))
	_, err := tr.Start("hail", 1, 0.1, Vec2{})

	var unknown *UnknownEffectError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, expected UnknownEffectError", err)
	}
	if unknown.ID != "hail" {
		t.Errorf("UnknownEffectError.ID = %q", unknown.ID)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after failed start", tr.Len())
	}
}

func TestZeroRateSnaps(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	in, _ := tr.Start("rain", 0.7, 0, Vec2{})
	if in.Intensity != 0 || in.State != StateStarting {
		t.Fatalf("Start with rate 0: intensity %g state %s, expected 0 starting", in.Intensity, in.State)
	}
	tr.Tick(1)
	if in.Intensity != 0.7 || in.State != StateSustaining {
		t.Errorf("first tick: intensity %g state %s, expected 0.7 sustaining", in.Intensity, in.State)
	}

	if err := tr.SetIntensity(in.ID, 0.2, 0); err != nil {
		t.Fatalf("SetIntensity failed: %v", err)
	}
	if in.Intensity != 0.2 {
		t.Errorf("SetIntensity with rate 0: intensity = %g, expected 0.2", in.Intensity)
	}
}

func TestTargetIsClamped(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	in, _ := tr.Start("rain", 3, -1, Vec2{})
	if in.Target != 1 || in.RampRate != 0 {
		t.Errorf("target/rate = %g/%g, expected 1/0", in.Target, in.RampRate)
	}
	tr.Tick(1)
	if in.Intensity != 1 {
		t.Errorf("intensity after first tick = %g, expected 1", in.Intensity)
	}
}

func TestRejectsNonFiniteValues(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tr := NewTransitions(newTestRegistry(t, rainDef()))

	for _, c := range []struct {
		target, rate float64
		wind         Vec2
	}{
		{nan, 0.1, Vec2{}},
		{0.5, inf, Vec2{}},
		{0.5, 0.1, Vec2{X: nan}},
		{0.5, 0.1, Vec2{Y: -inf}},
	} {
		if _, err := tr.Start("rain", c.target, c.rate, c.wind); !errors.Is(err, ErrNotFinite) {
			t.Errorf("Start(%g, %g, %+v) err = %v, expected ErrNotFinite", c.target, c.rate, c.wind, err)
		}
	}
	if tr.Len() != 0 {
		t.Fatalf("Len() = %d after rejected starts", tr.Len())
	}

	in, _ := tr.Start("rain", 0.5, 0, Vec2{X: 1})
	tr.Tick(1)

	if err := tr.SetIntensity(in.ID, nan, 0); !errors.Is(err, ErrNotFinite) {
		t.Errorf("SetIntensity(NaN) err = %v", err)
	}
	if err := tr.SetIntensity(in.ID, 0.9, inf); !errors.Is(err, ErrNotFinite) {
		t.Errorf("SetIntensity rate Inf err = %v", err)
	}
	if err := tr.SetWind(in.ID, Vec2{X: inf}); !errors.Is(err, ErrNotFinite) {
		t.Errorf("SetWind(Inf) err = %v", err)
	}
	if err := tr.Stop(in.ID, nan); !errors.Is(err, ErrNotFinite) {
		t.Errorf("Stop(NaN) err = %v", err)
	}

	if in.Intensity != 0.5 || in.Target != 0.5 || in.Wind != (Vec2{X: 1}) || in.State != StateSustaining {
		t.Errorf("instance changed by rejected calls: intensity %g target %g wind %+v state %s",
			in.Intensity, in.Target, in.Wind, in.State)
	}
}

func TestRampMonotonicity(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		target float64
		rate   float64
	}{
		{"up slow", 0, 1, 0.03},
		{"up uneven", 0.1, 0.95, 0.07},
		{"down", 0.9, 0.2, 0.11},
		{"down to zero", 1, 0, 0.3},
		{"rate larger than gap", 0.4, 0.5, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransitions(newTestRegistry(t, rainDef()))
			in, _ := tr.Start("rain", tt.start, 0, Vec2{})
			tr.Tick(0)
			if err := tr.SetIntensity(in.ID, tt.target, tt.rate); err != nil {
				t.Fatalf("SetIntensity failed: %v", err)
			}

			prev := in.Intensity
			up := tt.target > tt.start
			for tick := uint64(1); tick <= 100; tick++ {
				tr.Tick(tick)
				cur := in.Intensity
				if up && (cur < prev || cur > tt.target) {
					t.Fatalf("tick %d: %g -> %g (target %g)", tick, prev, cur, tt.target)
				}
				if !up && (cur > prev || cur < tt.target) {
					t.Fatalf("tick %d: %g -> %g (target %g)", tick, prev, cur, tt.target)
				}
				prev = cur
			}
			if prev != tt.target {
				t.Errorf("final intensity %g, expected %g", prev, tt.target)
			}
		})
	}
}

func TestRetargetKeepsCurrentIntensity(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	in, _ := tr.Start("rain", 1, 0.1, Vec2{})
	for tick := uint64(1); tick <= 4; tick++ {
		tr.Tick(tick)
	}
	before := in.Intensity

	if err := tr.SetIntensity(in.ID, 0, 0.05); err != nil {
		t.Fatalf("SetIntensity in Starting failed: %v", err)
	}
	if in.Intensity != before {
		t.Errorf("SetIntensity reset intensity from %g to %g", before, in.Intensity)
	}
	tr.Tick(5)
	if in.Intensity >= before {
		t.Errorf("intensity did not ramp down: %g -> %g", before, in.Intensity)
	}
}

func TestStopReachesStoppedThroughStopping(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	in, _ := tr.Start("rain", 1, 0, Vec2{})
	tr.Tick(1)
	if in.State != StateSustaining {
		t.Fatalf("state = %s, expected sustaining", in.State)
	}

	if err := tr.Stop(in.ID, 0.2); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if in.State != StateStopping {
		t.Fatalf("state after Stop = %s", in.State)
	}

	var seen []State
	for tick := uint64(2); tick <= 6; tick++ {
		tr.Tick(tick)
		seen = append(seen, in.State)
	}
	for i, st := range seen[:4] {
		if st != StateStopping {
			t.Errorf("tick %d: state %s, expected stopping", i+2, st)
		}
	}
	if seen[4] != StateStopped || in.Intensity != 0 {
		t.Errorf("after 5 ticks: state %s intensity %g", seen[4], in.Intensity)
	}
	if in.StoppedAt != 6 {
		t.Errorf("StoppedAt = %d, expected 6", in.StoppedAt)
	}
}

func TestInvalidStateOperations(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	stopping, _ := tr.Start("rain", 1, 0, Vec2{})
	tr.Stop(stopping.ID, 0.5)

	stopped, _ := tr.Start("rain", 1, 0, Vec2{})
	tr.Stop(stopped.ID, 0)
	tr.Tick(1)
	if stopped.State != StateStopped {
		t.Fatalf("setup: state %s, expected stopped", stopped.State)
	}

	tests := []struct {
		name    string
		call    func() error
		missing bool
	}{
		{"set intensity on stopping", func() error { return tr.SetIntensity(stopping.ID, 1, 0.1) }, false},
		{"stop on stopping", func() error { return tr.Stop(stopping.ID, 0.1) }, false},
		{"set intensity on stopped", func() error { return tr.SetIntensity(stopped.ID, 1, 0.1) }, false},
		{"stop on stopped", func() error { return tr.Stop(stopped.ID, 0.1) }, false},
		{"set wind on stopped", func() error { return tr.SetWind(stopped.ID, Vec2{X: 1}) }, false},
		{"set intensity on missing", func() error { return tr.SetIntensity(77, 1, 0.1) }, true},
		{"stop on missing", func() error { return tr.Stop(77, 0.1) }, true},
		{"stop on zero id", func() error { return tr.Stop(NoInstance, 0.1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var stateErr *InvalidInstanceStateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("err = %v, expected InvalidInstanceStateError", err)
			}
			if stateErr.Missing != tt.missing {
				t.Errorf("Missing = %v, expected %v", stateErr.Missing, tt.missing)
			}
		})
	}

	// Wind may still change while fading out.
	if err := tr.SetWind(stopping.ID, Vec2{X: -1}); err != nil {
		t.Errorf("SetWind on stopping instance: %v", err)
	}
}

func TestSweepFreesIDs(t *testing.T) {
	tr := NewTransitions(newTestRegistry(t, rainDef()))
	pool := NewPool(4)

	a, _ := tr.Start("rain", 1, 0, Vec2{})
	b, _ := tr.Start("rain", 1, 0, Vec2{})
	slot, _ := pool.Acquire(a.ID)

	tr.Stop(a.ID, 0)
	tr.Stop(b.ID, 0)
	tr.Tick(1)

	removed := tr.Sweep(pool, nil)
	if len(removed) != 1 || removed[0] != b.ID {
		t.Fatalf("Sweep removed %v, expected only %d", removed, b.ID)
	}
	if tr.Get(a.ID) == nil {
		t.Error("instance with live particles was removed")
	}

	pool.Release(slot)
	removed = tr.Sweep(pool, removed[:0])
	if len(removed) != 1 || removed[0] != a.ID {
		t.Fatalf("second Sweep removed %v, expected %d", removed, a.ID)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after sweeping everything", tr.Len())
	}

	c, _ := tr.Start("rain", 1, 0, Vec2{})
	if c.ID != a.ID && c.ID != b.ID {
		t.Errorf("new id %d did not reuse a freed id", c.ID)
	}
}

func TestParseState(t *testing.T) {
	for st := StateStarting; st <= StateStopped; st++ {
		got, err := ParseState(st.String())
		if err != nil || got != st {
			t.Errorf("ParseState(%q) = %v, %v", st.String(), got, err)
		}
	}
	if _, err := ParseState("paused"); err == nil {
		t.Error("ParseState(\"paused\") should fail")
	}
}
