// Package cell implements the agent of the simulation: a cell with a
// shared immutable biology (Constants), heritable behavior (Params) and
// per-cell state (energy and health). Cells advance one step at a time,
// budgeting their energy across reproduction, eating and healing.
package cell

import (
	"math"

	"github.com/fgamador/evo2/internal/sim/num"
)

// Constants is the biology shared by every cell of a lineage. A single
// value is allocated once and shared by pointer; it is never modified
// after creation.
type Constants struct {
	CreateChildEnergy                num.NonNeg
	FoodYieldFromEating              num.NonNeg
	EnergyYieldFromDigestion         num.NonNeg
	HealthIncreasePerHealingEnergy   num.Rate
	HealthReductionFromEntropy       num.Frac
	HealthReductionPerEnergyExpended num.Rate

	EatingEnergyMutationSD         num.NonNeg
	HealingEnergyMutationSD        num.NonNeg
	ChildThresholdEnergyMutationSD num.NonNeg
	ChildThresholdFoodMutationSD   num.NonNeg
}

// DefaultConstants returns a biology where eating and digestion convert
// one-to-one and everything else costs nothing.
func DefaultConstants() Constants {
	return Constants{
		FoodYieldFromEating:      num.ClipNonNeg(1),
		EnergyYieldFromDigestion: num.ClipNonNeg(1),
	}
}

// Params is the heritable behavior of a cell. Children receive a mutated
// copy of the parent's Params.
type Params struct {
	AttemptedEatingEnergy  num.NonNeg
	AttemptedHealingEnergy num.NonNeg
	ChildThresholdEnergy   num.NonNeg
	ChildThresholdFood     num.NonNeg
}

// DefaultParams returns behavior that never eats, heals or reproduces.
// The child threshold is the largest finite value, so the reproduction
// check can never pass.
func DefaultParams() Params {
	return Params{
		ChildThresholdEnergy: num.ClipNonNeg(math.MaxFloat64),
	}
}

func (p Params) mutated(c *Constants, m Mutator) Params {
	return Params{
		AttemptedEatingEnergy:  m.Mutate(p.AttemptedEatingEnergy, c.EatingEnergyMutationSD),
		AttemptedHealingEnergy: m.Mutate(p.AttemptedHealingEnergy, c.HealingEnergyMutationSD),
		ChildThresholdEnergy:   m.Mutate(p.ChildThresholdEnergy, c.ChildThresholdEnergyMutationSD),
		ChildThresholdFood:     m.Mutate(p.ChildThresholdFood, c.ChildThresholdFoodMutationSD),
	}
}

// Environment is the slice of the world a cell can see during one step.
type Environment struct {
	FoodPerCell num.NonNeg
}

// Cell is one agent. A cell is alive while its health is above zero.
type Cell struct {
	constants *Constants
	params    Params
	energy    num.NonNeg
	health    num.Frac
}

// New creates a cell with no energy and full health.
func New(constants *Constants, params Params) *Cell {
	return &Cell{
		constants: constants,
		params:    params,
		health:    num.ClipFrac(1),
	}
}

func (c *Cell) WithEnergy(e num.NonNeg) *Cell {
	c.energy = e
	return c
}

func (c *Cell) WithHealth(h num.Frac) *Cell {
	c.health = h
	return c
}

func (c *Cell) Energy() num.NonNeg { return c.energy }

func (c *Cell) Health() num.Frac { return c.health }

func (c *Cell) Params() Params { return c.params }

func (c *Cell) Constants() *Constants { return c.constants }

func (c *Cell) Alive() bool { return !c.health.IsZero() }

// Step advances the cell by one step. The cell budgets its energy across
// reproduction, eating and healing, in that priority order. Reproduction
// only commits when the budget covers the full child threshold energy and
// the food share meets the child threshold food; otherwise the energy is
// re-budgeted across eating and healing alone. The committed budget is
// then expended, food is eaten and digested, entropy erodes health, and
// healing restores it. A committed reproduction yields a child carrying a
// mutated copy of the parent's params.
//
// Step returns the child, or nil, and the amount of food eaten.
func (c *Cell) Step(env Environment, m Mutator) (child *Cell, foodEaten num.NonNeg) {
	if m == nil {
		m = IdentityMutator{}
	}

	granted, total := Budget(c.energy, []num.NonNeg{
		c.params.ChildThresholdEnergy,
		c.params.AttemptedEatingEnergy,
		c.params.AttemptedHealingEnergy,
	})
	childEnergy, eatingEnergy, healingEnergy := granted[0], granted[1], granted[2]

	reproduce := childEnergy.Value() >= c.params.ChildThresholdEnergy.Value() &&
		env.FoodPerCell.Value() >= c.params.ChildThresholdFood.Value()
	if !reproduce {
		granted, total = Budget(c.energy, []num.NonNeg{
			c.params.AttemptedEatingEnergy,
			c.params.AttemptedHealingEnergy,
		})
		eatingEnergy, healingEnergy = granted[0], granted[1]
	}

	c.energy = c.energy.SubClip(total)
	c.health = c.health.SubClip(total.MulRate(c.constants.HealthReductionPerEnergyExpended))

	foodEaten = eatingEnergy.Mul(c.constants.FoodYieldFromEating).Min(env.FoodPerCell)
	c.energy = c.energy.Add(foodEaten.Mul(c.constants.EnergyYieldFromDigestion))

	c.health = c.health.SubClip(c.constants.HealthReductionFromEntropy)
	c.health = c.health.AddClip(healingEnergy.MulRate(c.constants.HealthIncreasePerHealingEnergy))

	if !reproduce {
		return nil, foodEaten
	}
	return &Cell{
		constants: c.constants,
		params:    c.params.mutated(c.constants, m),
		energy:    childEnergy.SubClip(c.constants.CreateChildEnergy),
		health:    num.ClipFrac(1),
	}, foodEaten
}
