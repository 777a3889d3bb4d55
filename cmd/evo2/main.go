package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evo2",
		Short: "Evolutionary cell population simulator",
		Long: `evo2 simulates a population of cells competing for a shared food
pool. Cells budget their energy across reproduction, eating and healing,
decay from entropy, and pass mutated parameters to their offspring.

Runs record per-step telemetry to a compressed log and a SQLite index,
and can stream live stats to the watch command.`,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newScenarioCmd(),
		newReplayCmd(),
		newStatsCmd(),
		newWatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
