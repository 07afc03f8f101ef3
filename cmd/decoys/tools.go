package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TuftsBCB/decoys/apps/rosetta"
	"github.com/TuftsBCB/decoys/modelgen"
	"github.com/TuftsBCB/decoys/pdb"
	"github.com/TuftsBCB/decoys/rmsd"
)

var splitCmd = &cobra.Command{
	Use:   "split <models> <workers>",
	Short: "Show how many models each worker would generate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid model count: %w", err)
		}
		workers, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid worker count: %w", err)
		}
		counts, err := modelgen.Split(total, workers)
		if err != nil {
			return err
		}
		for i, n := range counts {
			fmt.Fprintf(cmd.OutOrStdout(), "worker_%d\t%d\n", i+1, n)
		}
		return nil
	},
}

var seedsSeed uint64

var seedsCmd = &cobra.Command{
	Use:   "seeds <n>",
	Short: "Print n distinct Rosetta seeds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed count: %w", err)
		}
		if err := modelgen.CheckSeedCount("n", n); err != nil {
			return err
		}
		seed := seedsSeed
		if seed == 0 {
			seed = rand.Uint64()
		}
		for _, s := range modelgen.Seeds(rand.New(rand.NewPCG(seed, seed)), n) {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var rosettaVersionCmd = &cobra.Command{
	Use:   "rosetta-version <rosetta-dir>",
	Short: "Detect the version of a Rosetta installation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := rosetta.DetectVersion(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", v)
		return nil
	},
}

var scoresCmd = &cobra.Command{
	Use:   "scores <worker-dir>",
	Short: "Summarize the score file of a Rosetta benchmark run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scores, err := rosetta.ReadScores(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), scores)
		return nil
	},
}

var rmsdCmd = &cobra.Command{
	Use:   "rmsd <a.pdb> <b.pdb>",
	Short: "Compute the carbon-alpha RMSD between two models",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e1, err := pdb.Read(args[0])
		if err != nil {
			return err
		}
		e2, err := pdb.Read(args[1])
		if err != nil {
			return err
		}
		d, err := rmsd.Entries(e1, e2)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%f\n", d)
		return nil
	},
}

func init() {
	seedsCmd.Flags().Uint64Var(&seedsSeed, "seed", 0,
		"seed for the generator (0 is random)")
}
