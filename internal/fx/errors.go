package fx

import (
	"errors"
	"fmt"
)

// ErrPoolExhausted is returned by Pool.Acquire when every slot is live.
// It is a signal, not a failure: the scheduler drops the spawn.
var ErrPoolExhausted = errors.New("fx: particle pool exhausted")

// ErrNotFinite is returned when an intensity, ramp rate or wind component is
// NaN or infinite.
var ErrNotFinite = errors.New("fx: value is not finite")

var errNoOwner = errors.New("fx: acquire requires an owning instance")

// UnknownEffectError is returned when a definition id is not registered.
type UnknownEffectError struct {
	ID string
}

func (e *UnknownEffectError) Error() string {
	return fmt.Sprintf("fx: unknown effect %q", e.ID)
}

// DuplicateIDError is returned when registering an id twice.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("fx: effect %q already registered", e.ID)
}

// InvalidInstanceStateError is returned for operations on instances that are
// stopping, stopped, or do not exist.
type InvalidInstanceStateError struct {
	ID      InstanceID
	Op      string
	State   State
	Missing bool
}

func (e *InvalidInstanceStateError) Error() string {
	if e.Missing {
		return fmt.Sprintf("fx: %s: no instance %d", e.Op, e.ID)
	}
	return fmt.Sprintf("fx: %s: instance %d is %s", e.Op, e.ID, e.State)
}

// ValidationError describes a malformed effect definition.
type ValidationError struct {
	Effect  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Effect == "" {
		return fmt.Sprintf("fx: invalid definition: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("fx: invalid definition %q: %s %s", e.Effect, e.Field, e.Message)
}
