package config

// CycleConfig rotates presets on a timer for unattended scenes.
type CycleConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Presets   []string `yaml:"presets"`
	HoldTicks int      `yaml:"hold_ticks"` // ticks each preset stays active
	Shuffle   bool     `yaml:"shuffle"`
}

// CycleSchedule decides which preset is active at a given tick.
type CycleSchedule struct {
	cfg   CycleConfig
	order []int
}

// NewCycleSchedule creates a schedule. perm, when non-nil, reorders the
// presets (the caller supplies it from its seeded RNG when Shuffle is set).
func NewCycleSchedule(cfg CycleConfig, perm []int) *CycleSchedule {
	order := make([]int, len(cfg.Presets))
	for i := range order {
		order[i] = i
	}
	if cfg.Shuffle && len(perm) == len(order) {
		copy(order, perm)
	}
	if cfg.HoldTicks <= 0 {
		cfg.HoldTicks = DefaultHoldTicks
	}
	return &CycleSchedule{cfg: cfg, order: order}
}

// SetEnabled turns the rotation on or off.
func (s *CycleSchedule) SetEnabled(enabled bool) {
	s.cfg.Enabled = enabled
}

// IsEnabled reports whether presets rotate.
func (s *CycleSchedule) IsEnabled() bool {
	return s.cfg.Enabled && len(s.cfg.Presets) > 0
}

// PresetAt returns the preset active at tick.
func (s *CycleSchedule) PresetAt(tick uint64) (string, bool) {
	if !s.IsEnabled() {
		return "", false
	}
	slot := int(tick/uint64(s.cfg.HoldTicks)) % len(s.order)
	return s.cfg.Presets[s.order[slot]], true
}

// Progress returns how far through its hold the current preset is, in [0, 1).
func (s *CycleSchedule) Progress(tick uint64) float64 {
	if !s.IsEnabled() {
		return 0
	}
	hold := uint64(s.cfg.HoldTicks)
	return float64(tick%hold) / float64(hold)
}

// Boundary reports whether tick starts a new preset.
func (s *CycleSchedule) Boundary(tick uint64) bool {
	return s.IsEnabled() && tick%uint64(s.cfg.HoldTicks) == 0
}
