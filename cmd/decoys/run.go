package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TuftsBCB/decoys/pipeline"
)

var runFlags struct {
	workDir  string
	workers  int
	models   int
	clusters int
	seed     uint64
	scwrl    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate decoys with Rosetta and cluster them",
	Long: `Generate decoys with Rosetta and cluster them with Spicker.

Flags override the values in the configuration file.

Examples:
  decoys run -c 1abc.yaml
  decoys run -c 1abc.yaml --workers 16 --models 2000 --clusters 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runPipeline(cmd, cfg)
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster <models-dir>",
	Short: "Cluster existing models with Spicker",
	Long: `Cluster the PDB files (*.pdb and *.pdb.gz) in a directory with Spicker,
without generating any new models.

Examples:
  decoys cluster ./models --clusters 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.ImportModels = args[0]
		return runPipeline(cmd, cfg)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, clusterCmd} {
		f := cmd.Flags()
		f.StringVarP(&runFlags.workDir, "work-dir", "d", "", "working directory")
		f.IntVarP(&runFlags.clusters, "clusters", "k", 0, "number of clusters to keep")
	}
	f := runCmd.Flags()
	f.IntVarP(&runFlags.workers, "workers", "n", 0, "number of Rosetta processes")
	f.IntVarP(&runFlags.models, "models", "m", 0, "total number of models")
	f.Uint64Var(&runFlags.seed, "seed", 0, "seed for the worker seeds (0 is random)")
	f.BoolVar(&runFlags.scwrl, "scwrl", false, "complete side chains with SCWRL")
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set on the command line.
func loadConfig(cmd *cobra.Command) (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if flagConfig != "" {
		var err error
		if cfg, err = pipeline.Load(flagConfig); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("work-dir") {
		cfg.WorkDir = runFlags.workDir
	}
	if f.Changed("clusters") {
		cfg.Spicker.Clusters = runFlags.clusters
	}
	if f.Lookup("workers") != nil {
		if f.Changed("workers") {
			cfg.Workers = runFlags.workers
		}
		if f.Changed("models") {
			cfg.Models = runFlags.models
		}
		if f.Changed("seed") {
			cfg.Seed = runFlags.seed
		}
		if f.Changed("scwrl") {
			cfg.UseScwrl = runFlags.scwrl
		}
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func runPipeline(cmd *cobra.Command, cfg *pipeline.Config) error {
	if err := os.MkdirAll(cfg.WorkDir, 0777); err != nil {
		return err
	}
	logger, closeLog, err := pipeline.NewLogger(os.Stderr,
		filepath.Join(cfg.WorkDir, pipeline.LogFile), cfg.Level())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	report, err := pipeline.Run(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	return nil
}
