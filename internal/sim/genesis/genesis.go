// Package genesis seeds a world's starting population by drawing each
// cell's energy and heritable params from normal distributions.
package genesis

import (
	"math/rand"

	"github.com/fgamador/evo2/internal/sim/cell"
	"github.com/fgamador/evo2/internal/sim/num"
)

// Normal is a normal distribution given by its mean and standard
// deviation.
type Normal struct {
	Mean   float64
	StdDev float64
}

// Config describes a starting population.
type Config struct {
	Count                int
	InitialEnergy        Normal
	EatingEnergy         Normal
	HealingEnergy        Normal
	ChildThresholdEnergy Normal
	ChildThresholdFood   Normal
}

// GenerateCells draws Count cells from the configured distributions.
// Every cell shares the given constants. Draws below zero are redrawn,
// the same convention the Gaussian mutator uses.
func GenerateCells(cfg Config, constants *cell.Constants, rng *rand.Rand) []*cell.Cell {
	cells := make([]*cell.Cell, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		params := cell.Params{
			AttemptedEatingEnergy:  sample(rng, cfg.EatingEnergy),
			AttemptedHealingEnergy: sample(rng, cfg.HealingEnergy),
			ChildThresholdEnergy:   sample(rng, cfg.ChildThresholdEnergy),
			ChildThresholdFood:     sample(rng, cfg.ChildThresholdFood),
		}
		cells = append(cells, cell.New(constants, params).WithEnergy(sample(rng, cfg.InitialEnergy)))
	}
	return cells
}

func sample(rng *rand.Rand, n Normal) num.NonNeg {
	if n.StdDev == 0 {
		return num.ClipNonNeg(n.Mean)
	}
	for {
		v := n.Mean + n.StdDev*rng.NormFloat64()
		if v >= 0 {
			return num.ClipNonNeg(v)
		}
	}
}
