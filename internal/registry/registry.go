// Package registry provides a global registry for scene factories.
// Scenes register themselves in init() functions, allowing the platform
// to discover and instantiate them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/weather"
)

// Scene is a scrolling map with a character and its own weather engine.
// Scenes contain pure logic with no external dependencies (especially no
// Bubble Tea). The platform handles input mapping, timing and rendering.
type Scene interface {
	// ID returns a unique identifier for this scene (e.g., "valley").
	// Used for CLI commands and snapshot storage.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Reset rebuilds the map, the walker and the weather engine.
	// Called once at start and again on restart.
	Reset(cfg core.RuntimeConfig)

	// Step advances the scene and its weather by one fixed tick.
	Step(in core.InputFrame) core.StepResult

	// RenderMap draws the terrain. Sky cells only get a background colour
	// so background-layer weather drawn before stays visible.
	RenderMap(dst *core.Screen)

	// RenderActors draws the characters on top of the map.
	RenderActors(dst *core.Screen)

	// State returns the active preset, pause flag and status message.
	State() core.SceneState

	// Say shows a short status message, e.g. after a snapshot is saved.
	Say(msg string)

	// Weather returns the director driving the scene's engine.
	// It is nil until the first Reset.
	Weather() *weather.Director
}

// Env carries what scenes need to build their weather.
// The zero Env is valid for metadata lookups such as Title.
type Env struct {
	Config config.Config
	Logger *log.Logger
}

// SceneInfo contains metadata about a registered scene.
type SceneInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a new instance of a scene.
type Factory func(env Env) Scene

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a scene factory to the registry.
// Typically called from a scene package's init() function.
// Panics if a scene with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: scene %q already registered", id))
	}

	factories[id] = f

	// Get title by creating a temporary instance
	titles[id] = f(Env{}).Title()
}

// List returns information about all registered scenes, sorted by ID.
func List() []SceneInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]SceneInfo, 0, len(factories))
	for id := range factories {
		result = append(result, SceneInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new scene by its ID.
// Returns an error if the scene ID is not registered.
func Create(id string, env Env) (Scene, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown scene %q", id)
	}

	return f(env), nil
}

// Exists checks if a scene with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
