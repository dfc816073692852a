package core

// RuntimeConfig is passed to scenes when they are reset.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in cells
	ScreenH  int   // Screen height in cells
	TickRate int   // Simulation ticks per second (default 30)
	Seed     int64 // RNG seed for reproducible weather
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
		Seed:     0, // 0 means use current time in platform layer
	}
}

// SceneState is what a scene reports to the host after each step.
type SceneState struct {
	Preset  string // active weather preset
	Paused  bool
	Message string // short status line, e.g. "snapshot saved"
}

// StepResult is returned by Scene.Step after each simulation tick.
type StepResult struct {
	State SceneState
	// SaveRequested asks the host to persist the current weather.
	SaveRequested bool
}
