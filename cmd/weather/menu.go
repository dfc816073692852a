package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/platform/tui"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with a scene picker menu",
	Long: `Start in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to open a scene.
Leaving a scene with Esc or B returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Open scene
  Tab          - Browse saved snapshots
  Q            - Quit

Examples:
  weather menu
  weather menu --fps 20
  weather menu --db ./weather.db`,
	Run: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	effects := loadEffects()
	logger, closeLog := sessionLogger()
	defer closeLog()

	store := openStore()
	cfg := terminalConfig()
	env := registry.Env{Config: effects, Logger: logger}

	// play runs one scene and reports whether to show the menu again.
	play := func(sceneID string, snap *storage.Snapshot) bool {
		sc, err := registry.Create(sceneID, env)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating scene: %v\n", err)
			return true
		}

		// Fresh seed for each scene
		cfg.Seed = time.Now().UnixNano()

		back, err := tui.Run(sc, store, cfg, tui.Options{Snapshot: snap, Logger: logger})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running scene: %v\n", err)
			return true
		}
		return back
	}

	// Menu loop
	for {
		menuResult, err := tui.RunMenu(store, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}

		// Update config with any size changes
		cfg = menuResult.Config

		if menuResult.Quit {
			break
		}

		if menuResult.WantsSnapshots {
			res, snapErr := tui.RunSnapshots(store, cfg.ScreenW, cfg.ScreenH)
			if snapErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", snapErr)
				continue
			}
			if res.Load != nil {
				if !play(res.Load.SceneID, res.Load) {
					break
				}
				continue
			}
			if res.Back {
				continue
			}
			break // User quit from the browser
		}

		if menuResult.SceneID == "" {
			break
		}
		if !play(menuResult.SceneID, nil) {
			break
		}
	}

	// Cleanup
	if store != nil {
		store.Close()
	}
}
