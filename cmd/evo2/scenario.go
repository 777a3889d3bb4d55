package main

import (
	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/sim/scenario"
)

func newScenarioCmd() *cobra.Command {
	var (
		steps uint64
		seed  int64
		opts  runOptions
	)

	cmd := &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "Run a simulation from a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("steps") {
				sc.Steps = steps
			}
			if cmd.Flags().Changed("seed") {
				sc.Seed = seed
			}
			return runSimulation(sc, opts)
		},
	}

	cmd.Flags().Uint64VarP(&steps, "steps", "s", 0, "override the scenario's step limit")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the scenario's random seed")
	registerRunOptionFlags(cmd, &opts)
	return cmd
}
