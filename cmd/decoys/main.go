// Command decoys generates protein decoys with Rosetta over several processes
// and clusters them with Spicker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "decoys",
	Short: "Parallel decoy generation and clustering",
	Long: `Decoys generates a population of candidate protein structures by running
Rosetta ab initio folding in several processes at once, each with its own
random seed, and then reduces the population to a few representative models
by clustering it with Spicker.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"log debug output to stderr")

	rootCmd.AddCommand(runCmd, clusterCmd, splitCmd, seedsCmd,
		rosettaVersionCmd, scoresCmd, rmsdCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("ERROR: "+err.Error()))
		stop()
		os.Exit(1)
	}
}
