package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/platform/tui"
	"github.com/vovakirdan/tui-weather/internal/registry"
	"github.com/vovakirdan/tui-weather/internal/storage"
)

var (
	flagPreset  string
	flagRestore string
	flagCycle   bool
)

var playCmd = &cobra.Command{
	Use:   "play <scene>",
	Short: "Walk a scene",
	Long: `Start the specified scene in the terminal.

Controls:
  A/D, Left/Right  - Walk
  W/S, +/-         - More or less weather
  Enter/N          - Next preset
  Tab              - Turn the wind
  P/Space          - Pause
  R                - Restart
  Ctrl+S           - Save a snapshot
  Ctrl+P           - Save a screenshot
  Q/Ctrl+C         - Quit

Restoring:
  --restore latest  - Latest snapshot of this scene
  --restore <id>    - A snapshot by ID (see 'weather snapshots')

Examples:
  weather play valley
  weather play tundra --preset blizzard
  weather play coast --restore latest
  weather play forest --cycle --fps 20`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPreset, "preset", "", "Weather preset to start with")
	playCmd.Flags().StringVar(&flagRestore, "restore", "", "Snapshot to restore: an ID or 'latest'")
	playCmd.Flags().BoolVar(&flagCycle, "cycle", false, "Rotate presets on the configured schedule")
}

func runPlay(_ *cobra.Command, args []string) {
	sceneID := args[0]
	mustScene(sceneID)

	effects := loadEffects()
	logger, closeLog := sessionLogger()
	defer closeLog()

	sc, err := registry.Create(sceneID, registry.Env{Config: effects, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating scene: %v\n", err)
		os.Exit(1)
	}

	store := openStore()

	var snap *storage.Snapshot
	if flagRestore != "" {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: --restore needs the snapshot database")
			os.Exit(1)
		}
		snap, err = findSnapshot(store, sceneID, flagRestore)
		if err != nil {
			store.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	_, runErr := tui.Run(sc, store, terminalConfig(), tui.Options{
		Preset:   flagPreset,
		Snapshot: snap,
		Cycle:    flagCycle,
		Logger:   logger,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running scene: %v\n", runErr)
		os.Exit(1)
	}
}

// findSnapshot resolves a --restore value for sceneID.
func findSnapshot(store *storage.Store, sceneID, ref string) (*storage.Snapshot, error) {
	if ref == "latest" {
		snap, err := store.LatestSnapshot(sceneID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no snapshots saved for %q", sceneID)
		}
		return snap, err
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot %q: expected an ID or 'latest'", ref)
	}
	snap, err := store.LoadSnapshot(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("snapshot #%d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if snap.SceneID != sceneID {
		return nil, fmt.Errorf("snapshot #%d belongs to scene %q", id, snap.SceneID)
	}
	return snap, nil
}
