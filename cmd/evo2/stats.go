package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/persistence/rundb"
)

func newStatsCmd() *cobra.Command {
	var (
		dataDir string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "stats [run-id]",
		Short: "List recorded runs, or dump one run's per-step rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rundb.Open(filepath.Join(dataDir, "runs.db"))
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 1 {
				return dumpRun(db, args[0])
			}
			return listRuns(db, limit)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func listRuns(db *rundb.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSCENARIO\tSEED\tSTARTED\tSTEPS\tCELLS\tBORN\tDIED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%d\n",
			r.RunID, r.Scenario, r.Seed, r.StartedAt, r.Steps, r.FinalCells, r.TotalBorn, r.TotalDied)
	}
	return tw.Flush()
}

func dumpRun(db *rundb.DB, runID string) error {
	ticks, err := db.TickRows(runID)
	if err != nil {
		return err
	}
	if len(ticks) == 0 {
		return fmt.Errorf("no rows for run %s", runID)
	}
	printStatsHeader()
	for _, s := range ticks {
		printStats(s)
	}
	return nil
}
