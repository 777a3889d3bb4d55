package main

import (
	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/sim/scenario"
)

func newRunCmd() *cobra.Command {
	var (
		steps       uint64
		cells       int
		initialFood float64
		addedFood   float64
		foodGrowth  float64
		seed        int64

		meanEnergy, sdEnergy           float64
		meanEating, sdEating           float64
		meanHealing, sdHealing         float64
		meanChildEnergy, sdChildEnergy float64
		meanChildFood, sdChildFood     float64

		createChild     float64
		eatYield        float64
		digestYield     float64
		healYield       float64
		entropy         float64
		healthPerEnergy float64

		mutationSD     float64
		mutEating      float64
		mutHealing     float64
		mutChildEnergy float64
		mutChildFood   float64

		opts runOptions
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation configured from flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pick := func(override float64) float64 {
				if override >= 0 {
					return override
				}
				return mutationSD
			}

			doc := scenario.Doc{
				Name:  "cli",
				Steps: steps,
				Seed:  seed,
				World: scenario.WorldDoc{InitialFood: initialFood},
				Constants: scenario.ConstantsDoc{
					CreateChildEnergy:                createChild,
					FoodYieldFromEating:              eatYield,
					EnergyYieldFromDigestion:         digestYield,
					HealthIncreasePerHealingEnergy:   healYield,
					HealthReductionFromEntropy:       entropy,
					HealthReductionPerEnergyExpended: healthPerEnergy,
					MutationSD: scenario.MutationSDDoc{
						EatingEnergy:         pick(mutEating),
						HealingEnergy:        pick(mutHealing),
						ChildThresholdEnergy: pick(mutChildEnergy),
						ChildThresholdFood:   pick(mutChildFood),
					},
				},
				Cells: scenario.CellsDoc{
					Count:         cells,
					InitialEnergy: scenario.NormalDoc{Mean: meanEnergy, SD: sdEnergy},
					EatingEnergy:  scenario.NormalDoc{Mean: meanEating, SD: sdEating},
					HealingEnergy: scenario.NormalDoc{Mean: meanHealing, SD: sdHealing},
					ChildThresholdFood: scenario.NormalDoc{
						Mean: meanChildFood, SD: sdChildFood,
					},
				},
			}
			if meanChildEnergy >= 0 {
				doc.Cells.ChildThresholdEnergy = &scenario.NormalDoc{
					Mean: meanChildEnergy, SD: sdChildEnergy,
				}
			}
			if addedFood > 0 {
				doc.World.FoodSources = append(doc.World.FoodSources,
					scenario.FoodSourceDoc{Kind: "constant", Amount: addedFood})
			}
			if foodGrowth > 0 {
				doc.World.FoodSources = append(doc.World.FoodSources,
					scenario.FoodSourceDoc{Kind: "growing", Increment: foodGrowth})
			}

			sc, err := scenario.FromDoc(doc)
			if err != nil {
				return err
			}
			return runSimulation(sc, opts)
		},
	}

	flags := cmd.Flags()
	flags.Uint64VarP(&steps, "steps", "s", 0, "number of steps (0 = run until extinction)")
	flags.IntVarP(&cells, "cells", "n", 100, "initial number of cells")
	flags.Float64VarP(&initialFood, "initial-food", "f", 0, "initial world food")
	flags.Float64Var(&addedFood, "added-food", 0, "world food added per step")
	flags.Float64Var(&foodGrowth, "food-growth", 0, "per-step increase of a linearly growing food source")
	flags.Int64Var(&seed, "seed", 1337, "random seed for population and mutation")

	flags.Float64VarP(&meanEnergy, "mean-energy", "e", 100, "mean of cell initial energies")
	flags.Float64Var(&sdEnergy, "sd-energy", 0, "standard deviation of cell initial energies")
	flags.Float64VarP(&meanEating, "mean-eating", "E", 0, "mean of cell eating energies")
	flags.Float64Var(&sdEating, "sd-eating", 0, "standard deviation of cell eating energies")
	flags.Float64Var(&meanHealing, "mean-healing", 0, "mean of cell healing energies")
	flags.Float64Var(&sdHealing, "sd-healing", 0, "standard deviation of cell healing energies")
	flags.Float64VarP(&meanChildEnergy, "mean-child-energy", "C", -1, "mean of child threshold energies (negative disables reproduction)")
	flags.Float64Var(&sdChildEnergy, "sd-child-energy", 0, "standard deviation of child threshold energies")
	flags.Float64Var(&meanChildFood, "mean-child-food", 0, "mean of child threshold foods")
	flags.Float64Var(&sdChildFood, "sd-child-food", 0, "standard deviation of child threshold foods")

	flags.Float64Var(&createChild, "create-child", 0, "energy cost of creating a child")
	flags.Float64VarP(&eatYield, "eat-yield", "F", 1, "food gained per unit eating energy")
	flags.Float64VarP(&digestYield, "digest-yield", "D", 1, "energy gained per unit food")
	flags.Float64Var(&healYield, "heal-yield", 0, "health gained per unit healing energy")
	flags.Float64Var(&entropy, "entropy", 0, "health lost per step to entropy")
	flags.Float64Var(&healthPerEnergy, "health-per-energy", 0, "health lost per unit energy expended")

	flags.Float64Var(&mutationSD, "mutation-sd", 0, "mutation standard deviation for every heritable param")
	flags.Float64Var(&mutEating, "mutation-sd-eating", -1, "mutation standard deviation for eating energy (negative = use --mutation-sd)")
	flags.Float64Var(&mutHealing, "mutation-sd-healing", -1, "mutation standard deviation for healing energy (negative = use --mutation-sd)")
	flags.Float64Var(&mutChildEnergy, "mutation-sd-child-energy", -1, "mutation standard deviation for child threshold energy (negative = use --mutation-sd)")
	flags.Float64Var(&mutChildFood, "mutation-sd-child-food", -1, "mutation standard deviation for child threshold food (negative = use --mutation-sd)")

	registerRunOptionFlags(cmd, &opts)
	return cmd
}
