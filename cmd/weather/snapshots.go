package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-weather/internal/storage"
)

var flagSnapLimit int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [scene]",
	Short: "List saved weather snapshots",
	Long: `Display saved weather snapshots, newest first, optionally for one scene.

Snapshots are saved with Ctrl+S while walking a scene and can be restored
with 'weather play <scene> --restore <id>'.

Examples:
  weather snapshots
  weather snapshots tundra
  weather snapshots show 3
  weather snapshots delete 3`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSnapshots,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the effects stored in a snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotsShow,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotsDelete,
}

func init() {
	snapshotsCmd.Flags().IntVar(&flagSnapLimit, "limit", 20, "Maximum snapshots to list")
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)
}

// mustStore opens the database or exits; listing commands have nothing to
// show without it.
func mustStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening snapshot database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid snapshot ID %q\n", arg)
		os.Exit(1)
	}
	return id
}

func runSnapshots(_ *cobra.Command, args []string) {
	sceneID := ""
	if len(args) == 1 {
		sceneID = args[0]
		mustScene(sceneID)
	}

	store := mustStore()
	snaps, err := store.ListSnapshots(sceneID, flagSnapLimit)
	store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving snapshots: %v\n", err)
		os.Exit(1)
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots saved yet.")
		fmt.Println()
		fmt.Println("Press Ctrl+S while walking a scene to save one.")
		return
	}

	// Print header
	fmt.Printf("  %-5s  %-8s  %-12s  %-8s  %-7s  %s\n", "ID", "Scene", "Preset", "Tick", "Effects", "Date")
	fmt.Printf("  %-5s  %-8s  %-12s  %-8s  %-7s  %s\n", "--", "-----", "------", "----", "-------", "----")

	for _, s := range snaps {
		dateStr := s.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-5d  %-8s  %-12s  %-8d  %-7d  %s\n", s.ID, s.SceneID, s.Preset, s.Tick, len(s.Instances), dateStr)
	}
}

func runSnapshotsShow(_ *cobra.Command, args []string) {
	id := parseID(args[0])

	store := mustStore()
	snap, err := store.LoadSnapshot(id)
	store.Close()
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: snapshot #%d not found\n", id)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Snapshot #%d - %s\n", snap.ID, snap.Name)
	fmt.Println()
	fmt.Printf("  Scene:   %s\n", snap.SceneID)
	fmt.Printf("  Preset:  %s\n", snap.Preset)
	fmt.Printf("  Tick:    %d\n", snap.Tick)
	fmt.Printf("  Saved:   %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if len(snap.Instances) == 0 {
		fmt.Println("  No active effects.")
		return
	}
	fmt.Printf("  %-14s  %-10s  %-9s  %-9s  %-7s  %s\n", "Effect", "State", "Intensity", "Target", "Ramp", "Wind")
	for _, st := range snap.Instances {
		fmt.Printf("  %-14s  %-10s  %-9.2f  %-9.2f  %-7.3f  %.2f,%.2f\n",
			st.Effect, st.State, st.Intensity, st.Target, st.RampRate, st.WindX, st.WindY)
	}
}

func runSnapshotsDelete(_ *cobra.Command, args []string) {
	id := parseID(args[0])

	store := mustStore()
	err := store.DeleteSnapshot(id)
	store.Close()
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: snapshot #%d not found\n", id)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted snapshot #%d.\n", id)
}
