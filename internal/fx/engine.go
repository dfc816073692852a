package fx

import (
	"errors"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
)

// Options configures an Engine.
type Options struct {
	Capacity int     // pool slots; DefaultCapacity when zero
	Margin   float64 // off-screen band in cells; DefaultMargin when zero
	Seed     int64   // RNG seed for reproducible runs
	Logger   *log.Logger
}

// Stats are cumulative engine counters.
type Stats struct {
	Tick      uint64
	Live      int
	Capacity  int
	Instances int
	Spawned   uint64
	Expired   uint64
	Dropped   uint64
}

// Engine owns the registry view, pool and per-tick pipeline.
// It is not safe for concurrent use; drive it from one goroutine.
type Engine struct {
	registry    *Registry
	pool        *Pool
	transitions *Transitions
	emitter     *Emitter
	updater     *Updater
	compositor  *Compositor
	logger      *log.Logger

	opts     Options
	viewport Viewport
	tick     uint64
	stats    Stats
	removed  []InstanceID
}

// NewEngine creates an engine reading definitions from reg.
func NewEngine(reg *Registry, opts Options) *Engine {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Margin <= 0 {
		opts.Margin = DefaultMargin
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	pool := NewPool(opts.Capacity)
	return &Engine{
		registry:    reg,
		pool:        pool,
		transitions: NewTransitions(reg),
		emitter:     NewEmitter(pool, rand.New(rand.NewSource(opts.Seed)), opts.Margin),
		updater:     NewUpdater(pool, opts.Margin),
		compositor:  NewCompositor(opts.Capacity),
		logger:      opts.Logger,
		opts:        opts,
		removed:     make([]InstanceID, 0, 8),
	}
}

// Start begins an effect covering the viewport.
func (e *Engine) Start(defID string, target, rate float64, wind Vec2) (InstanceID, error) {
	in, err := e.transitions.Start(defID, target, rate, wind)
	if err != nil {
		e.logger.Warn("start failed", "effect", defID, "err", err)
		return NoInstance, err
	}
	e.logger.Debug("effect started", "effect", defID, "id", in.ID, "target", in.Target, "rate", in.RampRate)
	return in.ID, nil
}

// StartAt begins a burst anchored at a world or screen position, depending on
// the definition's space.
func (e *Engine) StartAt(defID string, target, rate float64, wind, origin Vec2) (InstanceID, error) {
	in, err := e.transitions.StartAt(defID, target, rate, wind, origin)
	if err != nil {
		e.logger.Warn("start failed", "effect", defID, "err", err)
		return NoInstance, err
	}
	e.logger.Debug("burst started", "effect", defID, "id", in.ID, "x", origin.X, "y", origin.Y)
	return in.ID, nil
}

// SetIntensity retargets an instance. Invalid calls are logged and ignored.
func (e *Engine) SetIntensity(id InstanceID, target, rate float64) error {
	return e.warn(e.transitions.SetIntensity(id, target, rate))
}

// SetWind changes an instance's wind. Invalid calls are logged and ignored.
func (e *Engine) SetWind(id InstanceID, wind Vec2) error {
	return e.warn(e.transitions.SetWind(id, wind))
}

// Stop fades an instance out. Its particles finish their lifetimes.
func (e *Engine) Stop(id InstanceID, rate float64) error {
	if err := e.transitions.Stop(id, rate); err != nil {
		return e.warn(err)
	}
	e.logger.Debug("effect stopping", "id", id, "rate", rate)
	return nil
}

func (e *Engine) warn(err error) error {
	var stateErr *InvalidInstanceStateError
	switch {
	case errors.As(err, &stateErr):
		e.logger.Warn("ignored instance operation", "op", stateErr.Op, "id", stateErr.ID, "err", err)
	case errors.Is(err, ErrNotFinite):
		e.logger.Warn("rejected instance operation", "err", err)
	}
	return err
}

// Instance returns a copy of the instance state.
func (e *Engine) Instance(id InstanceID) (Instance, bool) {
	in := e.transitions.Get(id)
	if in == nil {
		return Instance{}, false
	}
	return *in, true
}

// Instances returns copies of every instance in creation order.
func (e *Engine) Instances() []Instance {
	out := make([]Instance, 0, e.transitions.Len())
	e.transitions.Each(func(in *Instance) {
		out = append(out, *in)
	})
	return out
}

// SetViewport moves the camera. It affects spawning, expiry and the
// world-to-screen conversion from the next tick on.
func (e *Engine) SetViewport(vp Viewport) {
	e.viewport = vp
}

// Viewport returns the current camera rectangle.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Tick runs one simulation step and returns the composed frame.
// The returned frame is reused by the next Tick.
func (e *Engine) Tick() *Frame {
	e.tick++
	now := e.tick

	e.transitions.Tick(now)

	spawned, dropped := e.emitter.Emit(e.transitions, e.viewport, now)
	if dropped > 0 {
		e.logger.Debug("pool exhausted", "tick", now, "dropped", dropped, "capacity", e.pool.Capacity())
	}

	expired := e.updater.Advance(e.transitions, e.viewport, now)

	e.removed = e.transitions.Sweep(e.pool, e.removed[:0])
	for _, id := range e.removed {
		e.logger.Debug("effect removed", "id", id)
	}

	e.stats.Spawned += uint64(spawned)
	e.stats.Dropped += uint64(dropped)
	e.stats.Expired += uint64(expired)

	return e.compositor.Compose(e.pool, e.transitions, e.viewport, now)
}

// Frame returns the most recent frame without advancing the simulation.
func (e *Engine) Frame() *Frame {
	return e.compositor.Frame()
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Tick = e.tick
	s.Live = e.pool.Live()
	s.Capacity = e.pool.Capacity()
	s.Instances = e.transitions.Len()
	return s
}

// Now returns the number of ticks run so far.
func (e *Engine) Now() uint64 {
	return e.tick
}

// Reset drops every instance and particle. The tick counter, counters and
// RNG sequence carry on; the dropped particles are counted as expired.
func (e *Engine) Reset() {
	e.stats.Expired += uint64(e.pool.Live())
	e.transitions.Clear()
	e.pool.Reset()
	e.compositor.Compose(e.pool, e.transitions, e.viewport, e.tick)
}

// Registry returns the definitions the engine reads from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Options returns the effective options after defaults were applied.
func (e *Engine) Options() Options {
	return e.opts
}

// Pool exposes the particle pool for inspection.
func (e *Engine) Pool() *Pool {
	return e.pool
}
