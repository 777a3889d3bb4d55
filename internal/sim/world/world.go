// Package world owns the cell population and the shared food pool, and
// advances them one step at a time.
package world

import (
	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/num"
)

// Config carries the pieces a world is built around. A nil Mutator means
// children inherit their parent's params unchanged.
type Config struct {
	Mutator cell.Mutator
}

// World holds the cell population and the food pool. The population is
// unordered: removing a cell swaps the last cell into the vacated slot.
// A World is owned by a single goroutine.
type World struct {
	cfg     Config
	cells   []*cell.Cell
	food    num.NonNeg
	sources []FoodSource

	tick        uint64
	statsLogger StatsLogger
}

func New(cfg Config) *World {
	if cfg.Mutator == nil {
		cfg.Mutator = cell.IdentityMutator{}
	}
	return &World{cfg: cfg}
}

func (w *World) AddCell(c *cell.Cell) { w.cells = append(w.cells, c) }

func (w *World) AddCells(cs []*cell.Cell) { w.cells = append(w.cells, cs...) }

func (w *World) SetFood(f num.NonNeg) { w.food = f }

func (w *World) AddFoodSource(s FoodSource) { w.sources = append(w.sources, s) }

// SetStatsLogger attaches a per-step stats sink. Write errors are
// discarded.
func (w *World) SetStatsLogger(l StatsLogger) { w.statsLogger = l }

func (w *World) NumCells() int { return len(w.cells) }

// Cell returns the cell currently in slot i. Slots are reshuffled by
// removal, so an index is only meaningful until the next step.
func (w *World) Cell(i int) *cell.Cell { return w.cells[i] }

func (w *World) Food() num.NonNeg { return w.food }

func (w *World) Tick() uint64 { return w.tick }

// MeanHealth averages the population's health. An empty world reports
// zero.
func (w *World) MeanHealth() float64 {
	if len(w.cells) == 0 {
		return 0
	}
	var sum float64
	for _, c := range w.cells {
		sum += c.Health().Value()
	}
	return sum / float64(len(w.cells))
}

// MeanEnergy averages the population's energy. An empty world reports
// zero.
func (w *World) MeanEnergy() float64 {
	if len(w.cells) == 0 {
		return 0
	}
	var sum float64
	for _, c := range w.cells {
		sum += c.Energy().Value()
	}
	return sum / float64(len(w.cells))
}
