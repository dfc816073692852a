package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List weather presets",
	Long: `Shows the weather presets from the effects file. A preset is a set of
effects at given intensities with a shared wind.

Examples:
  weather presets
  weather presets --config ./my-effects.yaml`,
	Run: runPresets,
}

func runPresets(_ *cobra.Command, _ []string) {
	cfg := loadEffects()
	if len(cfg.Presets) == 0 {
		fmt.Println("No presets defined.")
		return
	}

	fmt.Println("Weather presets:")
	fmt.Println()

	for _, p := range cfg.Presets {
		fmt.Printf("  %s", p.Name)
		if p.Description != "" {
			fmt.Printf(" - %s", p.Description)
		}
		fmt.Println()

		if len(p.Effects) == 0 {
			fmt.Println("      (no effects)")
			continue
		}
		parts := make([]string, 0, len(p.Effects))
		for _, pe := range p.Effects {
			parts = append(parts, fmt.Sprintf("%s %.0f%%", pe.Effect, pe.Intensity*100))
		}
		fmt.Printf("      %s, wind %.2f,%.2f\n", strings.Join(parts, ", "), p.Wind.X, p.Wind.Y)
	}

	if len(cfg.Cycle.Presets) > 0 {
		fmt.Println()
		fmt.Printf("Cycle: %s\n", strings.Join(cfg.Cycle.Presets, " -> "))
	}

	fmt.Println()
	fmt.Println("Run 'weather play <scene> --preset <name>' to try one.")
}
