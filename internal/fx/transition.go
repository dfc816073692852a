package fx

import (
	"fmt"
	"math"

	"github.com/vovakirdan/tui-weather/internal/core"
)

// InstanceID identifies a running effect. Ids are reused once an instance
// has been removed.
type InstanceID uint32

// NoInstance marks a free particle slot.
const NoInstance InstanceID = 0

// State is the lifecycle stage of an instance.
type State int

const (
	StateStarting State = iota
	StateSustaining
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateSustaining:
		return "sustaining"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState converts a persisted state name back to a State.
func ParseState(s string) (State, error) {
	for st := StateStarting; st <= StateStopped; st++ {
		if st.String() == normalizeName(s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown instance state %q", s)
}

// Vec2 is a 2D vector in cells or cells per tick.
type Vec2 struct {
	X, Y float64
}

// Len returns the vector magnitude.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// rampEpsilon absorbs float drift so repeated steps land exactly on target.
const rampEpsilon = 1e-9

// Instance is a running occurrence of a Definition.
type Instance struct {
	ID        InstanceID
	Def       *Definition
	Intensity float64
	Target    float64
	RampRate  float64
	State     State
	Wind      Vec2

	// Origin anchors localized bursts; unset instances cover the viewport.
	Origin    Vec2
	HasOrigin bool

	StartedAt uint64
	StoppedAt uint64

	accum float64
}

// Transitions owns every instance and drives their intensity ramps.
type Transitions struct {
	registry *Registry
	table    []*Instance // indexed by id, slot 0 unused
	order    []InstanceID
	freeIDs  []InstanceID
	now      uint64
}

// NewTransitions creates an empty transition manager.
func NewTransitions(reg *Registry) *Transitions {
	return &Transitions{
		registry: reg,
		table:    make([]*Instance, 1, 16),
	}
}

// Start creates an instance in StateStarting at intensity 0.
// A ramp rate of 0 reaches the target on the next Tick.
func (t *Transitions) Start(defID string, target, rate float64, wind Vec2) (*Instance, error) {
	def, err := t.registry.Lookup(defID)
	if err != nil {
		return nil, err
	}
	if !finite(target, rate, wind.X, wind.Y) {
		return nil, fmt.Errorf("fx: start %q: %w", defID, ErrNotFinite)
	}

	in := &Instance{
		ID:        t.allocID(),
		Def:       def,
		Target:    core.ClampF(target, 0, 1),
		RampRate:  math.Max(rate, 0),
		State:     StateStarting,
		Wind:      wind,
		StartedAt: t.now,
	}
	t.table[in.ID] = in
	t.order = append(t.order, in.ID)
	return in, nil
}

// StartAt is Start for a burst anchored at origin.
func (t *Transitions) StartAt(defID string, target, rate float64, wind, origin Vec2) (*Instance, error) {
	in, err := t.Start(defID, target, rate, wind)
	if err != nil {
		return nil, err
	}
	in.Origin = origin
	in.HasOrigin = true
	return in, nil
}

// SetIntensity retargets a starting or sustaining instance without resetting
// its current intensity.
func (t *Transitions) SetIntensity(id InstanceID, target, rate float64) error {
	in, err := t.live(id, "set intensity")
	if err != nil {
		return err
	}
	if !finite(target, rate) {
		return fmt.Errorf("fx: set intensity on %d: %w", id, ErrNotFinite)
	}
	in.Target = core.ClampF(target, 0, 1)
	in.RampRate = math.Max(rate, 0)
	if in.RampRate == 0 {
		in.Intensity = in.Target
	}
	return nil
}

// SetWind changes the wind applied to newly spawned particles and to drift.
func (t *Transitions) SetWind(id InstanceID, wind Vec2) error {
	in := t.Get(id)
	if in == nil {
		return &InvalidInstanceStateError{ID: id, Op: "set wind", Missing: true}
	}
	if in.State == StateStopped {
		return &InvalidInstanceStateError{ID: id, Op: "set wind", State: in.State}
	}
	if !finite(wind.X, wind.Y) {
		return fmt.Errorf("fx: set wind on %d: %w", id, ErrNotFinite)
	}
	in.Wind = wind
	return nil
}

// Stop ramps the instance to zero and moves it to StateStopping.
func (t *Transitions) Stop(id InstanceID, rate float64) error {
	in, err := t.live(id, "stop")
	if err != nil {
		return err
	}
	if !finite(rate) {
		return fmt.Errorf("fx: stop %d: %w", id, ErrNotFinite)
	}
	in.State = StateStopping
	in.Target = 0
	in.RampRate = math.Max(rate, 0)
	if in.RampRate == 0 {
		in.Intensity = 0
	}
	return nil
}

// Tick advances every ramp by one step and applies state transitions.
func (t *Transitions) Tick(now uint64) {
	t.now = now
	for _, id := range t.order {
		in := t.table[id]
		if in.State == StateStopped {
			continue
		}
		in.Intensity = approach(in.Intensity, in.Target, in.RampRate)

		switch in.State {
		case StateStarting:
			if in.Intensity == in.Target {
				in.State = StateSustaining
			}
		case StateStopping:
			if in.Intensity == 0 {
				in.State = StateStopped
				in.StoppedAt = now
				in.accum = 0
			}
		}
	}
}

// Sweep removes stopped instances that no longer own particles and returns
// the removed ids.
func (t *Transitions) Sweep(pool *Pool, removed []InstanceID) []InstanceID {
	kept := t.order[:0]
	for _, id := range t.order {
		in := t.table[id]
		if in.State == StateStopped && pool.OwnedBy(id) == 0 {
			t.table[id] = nil
			t.freeIDs = append(t.freeIDs, id)
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return removed
}

// Get returns the instance for id, or nil.
func (t *Transitions) Get(id InstanceID) *Instance {
	if id == NoInstance || int(id) >= len(t.table) {
		return nil
	}
	return t.table[id]
}

// Each visits instances in creation order.
func (t *Transitions) Each(fn func(in *Instance)) {
	for _, id := range t.order {
		fn(t.table[id])
	}
}

// Len returns the number of instances that have not been removed.
func (t *Transitions) Len() int {
	return len(t.order)
}

// Clear drops every instance.
func (t *Transitions) Clear() {
	for i := range t.table {
		t.table[i] = nil
	}
	t.table = t.table[:1]
	t.order = t.order[:0]
	t.freeIDs = t.freeIDs[:0]
}

func (t *Transitions) live(id InstanceID, op string) (*Instance, error) {
	in := t.Get(id)
	if in == nil {
		return nil, &InvalidInstanceStateError{ID: id, Op: op, Missing: true}
	}
	if in.State == StateStopping || in.State == StateStopped {
		return nil, &InvalidInstanceStateError{ID: id, Op: op, State: in.State}
	}
	return in, nil
}

func (t *Transitions) allocID() InstanceID {
	if n := len(t.freeIDs); n > 0 {
		id := t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
		return id
	}
	t.table = append(t.table, nil)
	return InstanceID(len(t.table) - 1)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// approach moves cur towards target by at most rate without overshooting.
func approach(cur, target, rate float64) float64 {
	if rate <= 0 {
		return target
	}
	var next float64
	if cur < target {
		next = math.Min(cur+rate, target)
	} else {
		next = math.Max(cur-rate, target)
	}
	if math.Abs(target-next) < rampEpsilon {
		next = target
	}
	return core.ClampF(next, 0, 1)
}
