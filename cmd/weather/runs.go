package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [preset]",
	Short: "Show recorded simulation runs",
	Long: `Display the engine counters of recent 'weather simulate' runs, newest
first, optionally for one preset.

Examples:
  weather runs
  weather runs storm --limit 5`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Maximum runs to list")
}

func runRuns(_ *cobra.Command, args []string) {
	preset := ""
	if len(args) == 1 {
		preset = args[0]
	}

	store := mustStore()
	runs, err := store.RecentRuns(preset, flagRunsLimit)
	store.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'weather simulate' to record one.")
		return
	}

	// Print header
	fmt.Printf("  %-4s  %-12s  %-7s  %-9s  %-9s  %-7s  %-11s  %s\n", "ID", "Preset", "Ticks", "Spawned", "Expired", "Dropped", "Peak", "Date")
	fmt.Printf("  %-4s  %-12s  %-7s  %-9s  %-9s  %-7s  %-11s  %s\n", "--", "------", "-----", "-------", "-------", "-------", "----", "----")

	for _, r := range runs {
		peak := fmt.Sprintf("%d/%d", r.PeakLive, r.Capacity)
		dateStr := r.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-12s  %-7d  %-9d  %-9d  %-7d  %-11s  %s\n",
			r.ID, r.Preset, r.Ticks, r.Spawned, r.Expired, r.Dropped, peak, dateStr)
	}
}
