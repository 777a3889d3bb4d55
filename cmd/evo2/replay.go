package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/persistence/runlog"
)

func newReplayCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "replay <events.jsonl.zst>",
		Short: "Re-print a recorded run and verify its tick sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := runlog.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			if !quiet {
				printStatsHeader()
			}

			var (
				entries    uint64
				lastTick   uint64
				totalBorn  int
				totalDied  int
				haveLast   bool
				finalCells int
			)
			for {
				s, err := r.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("entry %d: %w", entries+1, err)
				}
				if haveLast && s.Tick != lastTick+1 {
					return fmt.Errorf("tick gap: %d follows %d", s.Tick, lastTick)
				}
				lastTick = s.Tick
				haveLast = true
				entries++
				totalBorn += s.Born
				totalDied += s.Died
				finalCells = s.Cells
				if !quiet {
					printStats(s)
				}
			}

			fmt.Printf("replay ok: entries=%d last_tick=%d cells=%d born=%d died=%d\n",
				entries, lastTick, finalCells, totalBorn, totalDied)
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "verify without re-printing every step")
	return cmd
}
