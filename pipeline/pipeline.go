// Package pipeline runs the whole decoy pipeline: seeded parallel model
// generation with Rosetta, consolidation of the models (optionally through
// SCWRL) and clustering with Spicker.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/TuftsBCB/decoys/apps/rosetta"
	"github.com/TuftsBCB/decoys/apps/spicker"
	"github.com/TuftsBCB/decoys/modelgen"
)

// SpickerDir is the directory under the working directory that Spicker is
// run in.
const SpickerDir = "spicker"

// Report is the outcome of a pipeline run.
type Report struct {
	// RunID appears as "run" on every log record of the run.
	RunID string

	// Jobs is empty when models were imported.
	Jobs []*modelgen.Job

	ModelsDir string
	Models    []string
	Clusters  []spicker.Result

	// Spreads has an entry for each cluster whose spread could be measured.
	Spreads []Spread

	// Scores holds the score file of each worker when the models were
	// scored against a native structure.
	Scores []*rosetta.Scores

	Elapsed time.Duration
}

// Run generates (or imports) models and clusters them. cfg is not modified.
func Run(ctx context.Context, cfg *Config, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conf := *cfg
	if err := conf.resolve(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{RunID: uuid.New().String()[:8]}
	logger = logger.With("run", report.RunID)
	if err := os.MkdirAll(conf.WorkDir, 0777); err != nil {
		return nil, err
	}
	logger.Info("starting decoy pipeline", "work_dir", conf.WorkDir)

	if conf.ImportModels != "" {
		models, err := modelgen.Models(conf.ImportModels)
		if err != nil {
			return nil, fmt.Errorf("Could not import models: %w", err)
		}
		logger.Info("imported models", "dir", conf.ImportModels,
			"models", len(models))
		report.ModelsDir = conf.ImportModels
		report.Models = models
	} else if err := generate(ctx, &conf, logger, report); err != nil {
		return nil, err
	}

	sc := conf.Spicker
	sc.Logger = logger
	clusters, err := sc.Run(ctx, filepath.Join(conf.WorkDir, SpickerDir), report.Models)
	if err != nil {
		return nil, err
	}
	report.Clusters = clusters
	for _, c := range clusters {
		logger.Info("cluster", "index", c.Index, "size", c.Size,
			"centroid", c.Centroid, "list", c.ListFile)
		spread, err := clusterSpread(c)
		if err != nil {
			logger.Warn("could not measure cluster spread",
				"index", c.Index, "err", err)
			continue
		}
		report.Spreads = append(report.Spreads, spread)
		logger.Debug("cluster spread", "index", c.Index,
			"mean_rmsd", spread.Mean, "max_rmsd", spread.Max)
	}
	report.Elapsed = time.Since(start)
	logger.Info("decoy pipeline finished",
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// generate runs the generation and consolidation stages.
func generate(ctx context.Context, conf *Config, logger *slog.Logger, report *Report) error {
	rc := conf.Rosetta
	if rc.Version == 0 && conf.RosettaDir != "" {
		v, err := rosetta.DetectVersion(conf.RosettaDir)
		if err != nil {
			return err
		}
		rc.Version = v
	}
	logger.Info("rosetta", "exec", rc.Exec, "version", rc.Version)
	if err := rc.Prepare(conf.WorkDir); err != nil {
		return err
	}

	seed := conf.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logger.Info("planning workers", "workers", conf.Workers,
		"models", conf.Models, "seed", seed)
	jobs, err := modelgen.Plan(conf.WorkDir, conf.Models, conf.Workers,
		rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}
	report.Jobs = jobs

	sup := &modelgen.Supervisor{
		Command: func(job *modelgen.Job) ([]string, error) {
			return rc.Command(job.Dir, job.Models, job.Seed)
		},
		PollInterval: conf.PollInterval,
		Logger:       logger,
	}
	if _, err := sup.RunAll(ctx, jobs); err != nil {
		return err
	}

	con := &modelgen.Consolidator{ModelsDir: conf.ModelsDir, Logger: logger}
	if conf.UseScwrl {
		sc := conf.Scwrl
		sc.Logger = logger
		con.SideChains = sc
	}
	dir, err := con.Consolidate(ctx, jobs)
	if err != nil {
		return err
	}
	models, err := modelgen.Models(dir)
	if err != nil {
		return err
	}
	report.ModelsDir = dir
	report.Models = models
	logger.Info("consolidated models", "dir", dir, "models", len(models))

	if rc.Native != "" {
		for _, job := range jobs {
			if job.Models == 0 {
				continue
			}
			scores, err := rosetta.ReadScores(job.Dir)
			if err != nil {
				logger.Warn("could not read scores", "worker", job.Number(),
					"err", err)
				continue
			}
			report.Scores = append(report.Scores, scores)
			logger.Info("scores", "worker", job.Number(),
				"top_score", scores.TopScore, "top_rms", scores.TopRms,
				"top_maxsub", scores.TopMaxsub)
		}
	}
	return nil
}
