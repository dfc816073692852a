package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/core"
	"github.com/vovakirdan/tui-weather/internal/platform/canvas"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

var (
	flagSimTicks  int
	flagSimScene  string
	flagSimWidth  int
	flagSimHeight int
	flagSimWalk   bool
	flagSimShow   bool
	flagSimRecord bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [preset]",
	Short: "Run the engine headless and print stats",
	Long: `Run a scene without a display for a fixed number of ticks and print
the engine counters: particles spawned, expired and dropped, peak live
particles and active instances.

The run is recorded in the database unless --record=false; see
'weather runs' for history.

Examples:
  weather simulate
  weather simulate blizzard --ticks 1800
  weather simulate storm --scene coast --walk --show
  weather simulate sandstorm --seed 7 --record=false`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimTicks, "ticks", 900, "Number of ticks to run")
	simulateCmd.Flags().StringVar(&flagSimScene, "scene", "valley", "Scene to run")
	simulateCmd.Flags().IntVar(&flagSimWidth, "width", 80, "Viewport width in cells")
	simulateCmd.Flags().IntVar(&flagSimHeight, "height", 24, "Viewport height in cells")
	simulateCmd.Flags().BoolVar(&flagSimWalk, "walk", false, "Keep the walker walking right")
	simulateCmd.Flags().BoolVar(&flagSimShow, "show", false, "Print the last frame")
	simulateCmd.Flags().BoolVar(&flagSimRecord, "record", true, "Record the run in the database")
}

func runSimulate(_ *cobra.Command, args []string) {
	mustScene(flagSimScene)
	if flagSimTicks <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --ticks must be positive")
		os.Exit(1)
	}

	logger := newLogger("weather")
	effects := loadEffects()

	sc, err := registry.Create(flagSimScene, registry.Env{Config: effects, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating scene: %v\n", err)
		os.Exit(1)
	}
	sc.Reset(core.RuntimeConfig{
		ScreenW:  flagSimWidth,
		ScreenH:  flagSimHeight,
		TickRate: flagFPS,
		Seed:     seed(),
	})

	d := sc.Weather()
	if len(args) == 1 {
		if err := d.Apply(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Run 'weather presets' to see available presets.")
			os.Exit(1)
		}
	}

	in := core.NewInputFrame()
	if flagSimWalk {
		in.Set(core.ActionRight)
	}

	peak := 0
	start := time.Now()
	for i := 0; i < flagSimTicks; i++ {
		sc.Step(in)
		stats := d.Engine().Stats()
		peak = max(peak, stats.Live)
		if stats.Tick%uint64(max(flagFPS, 1)*10) == 0 {
			logger.Debug("progress", "tick", stats.Tick, "live", stats.Live, "instances", stats.Instances)
		}
	}
	elapsed := time.Since(start)
	stats := d.Engine().Stats()

	fmt.Printf("Simulated %s / %s for %d ticks in %s\n", sc.Title(), d.Preset(), stats.Tick, elapsed.Round(time.Millisecond))
	fmt.Println()
	fmt.Printf("  %-10s  %d / %d\n", "Live", stats.Live, stats.Capacity)
	fmt.Printf("  %-10s  %d\n", "Peak", peak)
	fmt.Printf("  %-10s  %d\n", "Instances", stats.Instances)
	fmt.Printf("  %-10s  %d\n", "Spawned", stats.Spawned)
	fmt.Printf("  %-10s  %d\n", "Expired", stats.Expired)
	fmt.Printf("  %-10s  %d\n", "Dropped", stats.Dropped)
	if elapsed > 0 {
		fmt.Printf("  %-10s  %.0f ticks/s\n", "Speed", float64(stats.Tick)/elapsed.Seconds())
	}

	if flagSimShow {
		scr := core.NewScreen(flagSimWidth, flagSimHeight)
		canvas.Scene(scr, sc, d.Engine().Frame())
		fmt.Println()
		for y := 0; y < scr.Height(); y++ {
			fmt.Println(scr.Row(y))
		}
	}

	if !flagSimRecord {
		return
	}
	store := openStore()
	if store == nil {
		return
	}
	defer store.Close()

	id, err := store.SaveRun(storage.RunStats{
		Preset:   d.Preset(),
		Ticks:    stats.Tick,
		Spawned:  stats.Spawned,
		Expired:  stats.Expired,
		Dropped:  stats.Dropped,
		PeakLive: peak,
		Capacity: stats.Capacity,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
		return
	}
	fmt.Println()
	fmt.Printf("Recorded as run #%d.\n", id)
}
