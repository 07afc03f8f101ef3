package modelgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SideChainer completes the side chains of every structure in a directory,
// writing each result into out with the given prefix. It returns the paths
// written.
type SideChainer interface {
	ProcessDirectory(ctx context.Context, in, out, prefix string) ([]string, error)
}

// Consolidator merges the structures produced by every worker into a single
// models directory.
//
// Two workers may write files with the same base name, so every file is
// renamed with its worker number as a prefix: "3_S_00000001.pdb" without
// side chain completion and "scwrl_3_S_00000001.pdb" with it.
type Consolidator struct {
	ModelsDir string

	// SideChains, when not nil, is run over each worker directory instead
	// of copying the files.
	SideChains SideChainer

	Logger *slog.Logger
}

// Consolidate fills the models directory from the output of jobs, which
// must all have finished successfully. It returns the models directory.
//
// Consolidation is not transactional: on error, files already written to
// the models directory stay there. Running it again over the same jobs
// overwrites the same set of files.
func (c *Consolidator) Consolidate(ctx context.Context, jobs []*Job) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inputs := make([][]string, len(jobs))
	for i, job := range jobs {
		if !job.Done() {
			return "", &WorkerError{
				Index: job.Index, ExitCode: -1, Log: job.Log,
				Msg: "has not finished",
			}
		}
		if !job.Succeeded() {
			return "", &WorkerError{
				Index: job.Index, ExitCode: *job.ExitCode, Log: job.Log,
			}
		}
		if job.Models == 0 {
			continue
		}
		pdbs, err := Models(job.Dir)
		if err != nil {
			return "", &FatalError{"Consolidation", job.Dir, err}
		}
		if len(pdbs) == 0 {
			return "", &WorkerError{
				Index: job.Index, ExitCode: *job.ExitCode, Log: job.Log,
				Msg: fmt.Sprintf("produced no structure files in '%s'", job.Dir),
			}
		}
		inputs[i] = pdbs
	}

	if err := os.MkdirAll(c.ModelsDir, 0777); err != nil {
		return "", &FatalError{"Consolidation", c.ModelsDir, err}
	}

	if c.SideChains != nil {
		g, gctx := errgroup.WithContext(ctx)
		for i, job := range jobs {
			if len(inputs[i]) == 0 {
				continue
			}
			g.Go(func() error {
				prefix := fmt.Sprintf("scwrl_%d", job.Number())
				out, err := c.SideChains.ProcessDirectory(
					gctx, job.Dir, c.ModelsDir, prefix)
				if err != nil {
					return &FatalError{"Side chain completion", job.Dir, err}
				}
				logger.Info("completed side chains",
					"worker", job.Number(), "models", len(out))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
		return c.ModelsDir, nil
	}

	for i, job := range jobs {
		for _, src := range inputs[i] {
			dst := filepath.Join(c.ModelsDir,
				fmt.Sprintf("%d_%s", job.Number(), filepath.Base(src)))
			if err := copyFile(src, dst); err != nil {
				return "", &FatalError{"Consolidation", src, err}
			}
		}
		logger.Info("copied models", "worker", job.Number(),
			"models", len(inputs[i]), "to", c.ModelsDir)
	}
	return c.ModelsDir, nil
}

// Models returns the PDB files in dir, gzipped or not, in lexical order.
func Models(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	var models []string
	for _, pattern := range []string{"*.pdb", "*.pdb.gz"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		models = append(models, matches...)
	}
	slices.Sort(models)
	return models, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
