// weather is a weather and particle effects demo for 2D scrolling scenes.
//
// Usage:
//
//	weather list              - List available scenes
//	weather effects           - List effect definitions
//	weather presets           - List weather presets
//	weather play <scene>      - Walk a scene in the terminal
//	weather menu              - Pick scenes interactively
//	weather simulate [preset] - Run the engine headless and print stats
//	weather snapshots [scene] - List, show and delete saved weather
//	weather runs [preset]     - Show recorded simulation runs
//	weather serve             - Start SSH server for remote sessions
//	weather window <scene>    - Open a scene in a desktop window
//	weather stream <scene>    - Stream a scene to WebSocket viewers
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 30)
//	--seed <value>      - Set RNG seed for reproducible weather
//	--db <path>         - Set database path (default: ~/.weather/weather.db)
//	--config <path>     - Use a custom effects file
//	--log-level <level> - debug, info, warn or error
//	--log-file <path>   - Log interactive sessions to a file
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-weather/internal/config"
	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"

	// Import scenes to register them
	_ "github.com/vovakirdan/tui-weather/internal/scenes/overworld"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "weather",
	Short: "Weather - particle weather for 2D scrolling scenes",
	Long: `Weather runs rain, snow, leaves, embers, fog and friends over small
scrolling landscapes, in the terminal, over SSH, in a window or as a
WebSocket stream.

Available commands:
  list       - Show all scenes
  effects    - Show effect definitions
  presets    - Show weather presets
  play       - Walk a scene directly
  menu       - Interactive scene picker
  simulate   - Headless run with engine stats
  snapshots  - Manage saved weather
  runs       - Show recorded simulation runs
  serve      - Start SSH server
  window     - Open a desktop window
  stream     - Serve a scene over WebSocket

Examples:
  weather list
  weather play tundra --preset blizzard
  weather menu
  weather simulate storm --ticks 600
  weather serve --ssh :2222`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Tick rate (ticks per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.weather/weather.db", "Path to snapshot database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom effects YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file for interactive sessions (default: no logging)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(effectsCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(streamCmd)
}

// newLogger returns a stderr logger at the --log-level.
func newLogger(prefix string) *log.Logger {
	return newLoggerTo(os.Stderr, prefix)
}

func newLoggerTo(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// sessionLogger returns a logger for full-screen commands. Output to the
// terminal would break the display, so it goes to --log-file or nowhere.
// The returned func closes the file.
func sessionLogger() (*log.Logger, func()) {
	if flagLogFile == "" {
		return log.New(io.Discard), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(flagLogFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
		return log.New(io.Discard), func() {}
	}
	return newLoggerTo(f, "weather"), func() { f.Close() }
}

// loadEffects reads the effects file or exits.
func loadEffects() config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the snapshot database. Failures are reported and the
// command continues without storage.
func openStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open snapshot database: %v\n", err)
		return nil
	}
	return store
}

// terminalConfig sizes the runtime config to the terminal.
func terminalConfig() core.RuntimeConfig {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     seed(),
	}
}

// seed returns --seed, or a time-based seed when it is 0.
func seed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// mustScene checks that id is registered or exits with a hint.
func mustScene(id string) {
	if !registry.Exists(id) {
		fmt.Fprintf(os.Stderr, "Error: unknown scene %q\n", id)
		fmt.Fprintln(os.Stderr, "Run 'weather list' to see available scenes.")
		os.Exit(1)
	}
}
