// Package simtest is a small black-box harness for driving simulations
// through their exported APIs in tests:
//   - AddCell/SetFood/AddSource build the starting world
//   - StepN/StepUntilExtinct advance it while tallying births and deaths
//   - Require* helpers assert on the outside-visible state
//
// It deliberately avoids touching world internals, so tests written with
// it keep compiling as the internals move.
package simtest

import (
	"testing"

	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/num"
	"github.com/fgamador/evo2/internal/sim/world"
)

// Harness owns a world under test and the running totals of births and
// deaths reported by its steps.
type Harness struct {
	T *testing.T
	W *world.World

	TotalBorn int
	TotalDied int
}

func New(t *testing.T, cfg world.Config) *Harness {
	t.Helper()
	return &Harness{T: t, W: world.New(cfg)}
}

// AddCell builds a cell on the given constants and adds it to the world.
func (h *Harness) AddCell(constants *cell.Constants, params cell.Params, energy float64) *cell.Cell {
	c := cell.New(constants, params).WithEnergy(num.ClipNonNeg(energy))
	h.W.AddCell(c)
	return c
}

func (h *Harness) SetFood(amount float64) { h.W.SetFood(num.ClipNonNeg(amount)) }

func (h *Harness) AddSource(s world.FoodSource) { h.W.AddFoodSource(s) }

// StepN advances the world n steps.
func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		born, died := h.W.Step()
		h.TotalBorn += born
		h.TotalDied += died
	}
}

// StepUntilExtinct steps until the population is gone and returns how
// many steps that took. It fails the test if the population is still
// alive after maxSteps.
func (h *Harness) StepUntilExtinct(maxSteps int) int {
	h.T.Helper()
	for i := 0; i < maxSteps; i++ {
		if h.W.NumCells() == 0 {
			return i
		}
		born, died := h.W.Step()
		h.TotalBorn += born
		h.TotalDied += died
	}
	h.T.Fatalf("population still alive after %d steps", maxSteps)
	return maxSteps
}

func (h *Harness) RequireCells(want int) {
	h.T.Helper()
	if got := h.W.NumCells(); got != want {
		h.T.Fatalf("num cells = %d, want %d", got, want)
	}
}

func (h *Harness) RequireFood(want float64) {
	h.T.Helper()
	if got := h.W.Food().Value(); got != want {
		h.T.Fatalf("food = %v, want %v", got, want)
	}
}

func (h *Harness) RequireMeanEnergy(want float64) {
	h.T.Helper()
	if got := h.W.MeanEnergy(); got != want {
		h.T.Fatalf("mean energy = %v, want %v", got, want)
	}
}
