package main

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/persistence/rundb"
	"github.com/fgamador/evo2/internal/persistence/runlog"
	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/genesis"
	"github.com/fgamador/evo2/internal/sim/scenario"
	"github.com/fgamador/evo2/internal/sim/world"
	"github.com/fgamador/evo2/internal/transport/observer"
)

// runOptions is the wiring every run shares, whether it came from flags
// or from a scenario file.
type runOptions struct {
	DataDir    string
	DisableDB  bool
	Listen     string
	PrintEvery int
	Quiet      bool
}

func registerRunOptionFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.DataDir, "data", "./data", "runtime data directory")
	cmd.Flags().BoolVar(&opts.DisableDB, "no-db", false, "disable the SQLite run index")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "observer http listen address (empty to disable)")
	cmd.Flags().IntVar(&opts.PrintEvery, "print-every", 1, "print stats every N steps")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "suppress per-step stats output")
}

// runSimulation seeds a world from the scenario, wires the telemetry
// sinks and drives it to its step limit or to extinction.
func runSimulation(sc scenario.Scenario, opts runOptions) error {
	logger := log.New(os.Stdout, "[run] ", log.LstdFlags|log.Lmicroseconds)

	rng := rand.New(rand.NewSource(sc.Seed))
	constants := sc.Constants
	w := world.New(world.Config{Mutator: cell.NewGaussianMutator(rng)})
	w.AddCells(genesis.GenerateCells(sc.Cells, &constants, rng))
	w.SetFood(sc.InitialFood)
	for _, s := range sc.BuildFoodSources() {
		w.AddFoodSource(s)
	}

	runID := uuid.NewString()
	runDir := filepath.Join(opts.DataDir, "runs", runID)

	logWriter, err := runlog.Create(filepath.Join(runDir, "events.jsonl.zst"))
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	defer logWriter.Close()
	sinks := []world.StatsLogger{logWriter}

	var handle *rundb.RunHandle
	if !opts.DisableDB {
		db, err := rundb.Open(filepath.Join(opts.DataDir, "runs.db"))
		if err != nil {
			return fmt.Errorf("open run index: %w", err)
		}
		defer db.Close()
		handle = db.BeginRun(runID, sc.Name, sc.Seed)
		sinks = append(sinks, handle)
	}

	if opts.Listen != "" {
		obs := observer.NewServer(
			observer.RunInfo{RunID: runID, Scenario: sc.Name, Seed: sc.Seed},
			log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds),
		)
		srv := &http.Server{Addr: opts.Listen, Handler: obs.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer: %v", err)
			}
		}()
		defer srv.Close()
		defer obs.Close()
		sinks = append(sinks, obs)
		logger.Printf("observer listening on %s", opts.Listen)
	}

	w.SetStatsLogger(world.MultiStats(sinks...))

	logger.Printf("run %s: scenario=%s seed=%d cells=%d food=%v",
		runID, sc.Name, sc.Seed, w.NumCells(), w.Food().Value())

	if !opts.Quiet {
		printStatsHeader()
		printStats(w.Stats())
	}

	var step uint64
	var totalBorn, totalDied int
	for (sc.Steps == 0 || step < sc.Steps) && w.NumCells() > 0 {
		born, died := w.Step()
		step++
		totalBorn += born
		totalDied += died
		if !opts.Quiet && (opts.PrintEvery <= 1 || step%uint64(opts.PrintEvery) == 0 || w.NumCells() == 0) {
			s := w.Stats()
			s.Born, s.Died = born, died
			printStats(s)
		}
	}

	if handle != nil {
		handle.Finish(step, w.NumCells(), totalBorn, totalDied)
	}
	logger.Printf("run %s done: steps=%d cells=%d born=%d died=%d",
		runID, step, w.NumCells(), totalBorn, totalDied)
	return nil
}

func printStatsHeader() {
	fmt.Println("<step>: +<born> -<died> -> <cells> (h: <mean_cell_health>, e: <mean_cell_energy>, f: <total_food>)")
}

func printStats(s world.TickStats) {
	fmt.Printf("%d: +%d -%d -> %d (h: %v, e: %v, f: %v)\n",
		s.Tick, s.Born, s.Died, s.Cells, s.MeanHealth, s.MeanEnergy, s.Food)
}
