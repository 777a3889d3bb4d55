package world

import (
	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/num"
)

// Step advances the world by one step and reports how many cells were
// born and how many died. Food sources are polled first. Every cell
// present at the start of the step then runs against the same food
// share. Newborns join at the end of the step and the dead are swapped
// out, so neither acts until the next step.
func (w *World) Step() (born, died int) {
	for _, s := range w.sources {
		w.food = w.food.Add(s.FoodThisStep())
	}

	var newborns []*cell.Cell
	var deadIndexes []int
	if n := len(w.cells); n > 0 {
		env := cell.Environment{FoodPerCell: num.ClipNonNeg(w.food.Value() / float64(n))}
		for i, c := range w.cells {
			child, eaten := c.Step(env, w.cfg.Mutator)
			w.food = w.food.SubClip(eaten)
			if child != nil {
				newborns = append(newborns, child)
			}
			if !c.Alive() {
				deadIndexes = append(deadIndexes, i)
			}
		}
	}

	w.cells = append(w.cells, newborns...)
	w.removeCells(deadIndexes)
	w.tick++

	born, died = len(newborns), len(deadIndexes)
	if w.statsLogger != nil {
		_ = w.statsLogger.WriteTick(w.tickStats(born, died))
	}
	return born, died
}

// removeCells removes the cells at the given ascending indexes by
// swapping the last cell into each slot. Walking the indexes backwards
// keeps the earlier ones valid while the slice shrinks.
func (w *World) removeCells(ascIndexes []int) {
	for i := len(ascIndexes) - 1; i >= 0; i-- {
		idx := ascIndexes[i]
		last := len(w.cells) - 1
		w.cells[idx] = w.cells[last]
		w.cells[last] = nil
		w.cells = w.cells[:last]
	}
}
