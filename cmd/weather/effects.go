package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/config"
)

var flagDump bool

var effectsCmd = &cobra.Command{
	Use:   "effects",
	Short: "List effect definitions",
	Long: `Shows the effects loaded from the effects file, with their layer,
blend mode and peak particle rate.

Use --dump to print the built-in effects file as a starting point for
your own:

  weather effects --dump > ~/.weather/effects.yaml`,
	Run: runEffects,
}

func init() {
	effectsCmd.Flags().BoolVar(&flagDump, "dump", false, "Print the built-in effects file and exit")
}

func runEffects(_ *cobra.Command, _ []string) {
	if flagDump {
		os.Stdout.Write(config.DefaultYAML())
		return
	}

	cfg := loadEffects()
	if len(cfg.Effects) == 0 {
		fmt.Println("No effects defined.")
		return
	}

	maxIDLen := 2
	for _, e := range cfg.Effects {
		maxIDLen = max(maxIDLen, len(e.ID))
	}

	fmt.Printf("Effects (engine capacity %d, margin %.0f)\n", cfg.Engine.Capacity, cfg.Engine.Margin)
	fmt.Println()
	fmt.Printf("  %-*s  %-16s  %-6s  %-8s  %-7s  %s\n", maxIDLen, "ID", "Layer", "Space", "Blend", "Glyph", "Rate")
	fmt.Printf("  %-*s  %-16s  %-6s  %-8s  %-7s  %s\n", maxIDLen, "--", "-----", "-----", "-----", "-----", "----")

	for _, e := range cfg.Effects {
		space := e.Space
		if space == "" {
			space = "screen"
		}
		blend := e.Blend
		if blend == "" {
			blend = "alpha"
		}
		glyph := e.Glyph
		if glyph == "" {
			glyph = "-"
		}
		rate := fmt.Sprintf("%.1f/tick", e.Density.Max)
		if e.Layer == "overlay" {
			rate = e.Overlay.Kind
		}
		fmt.Printf("  %-*s  %-16s  %-6s  %-8s  %-7s  %s\n", maxIDLen, e.ID, e.Layer, space, blend, glyph, rate)
	}
}
