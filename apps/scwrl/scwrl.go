// Package scwrl wraps SCWRL, which places side chains on backbone-only
// protein models.
package scwrl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultConfig runs 'Scwrl4' from PATH.
var DefaultConfig = Config{Exec: "Scwrl4"}

type Config struct {
	Exec string `yaml:"exec"`

	// Logger receives each command run, at debug level. If nil,
	// slog.Default is used.
	Logger *slog.Logger `yaml:"-"`
}

// ProcessDirectory adds side chains to every PDB file in dir, in lexical
// order, and writes each result to out/<prefix>_<name>. It returns the paths
// written.
//
// SCWRL is run once per file. The first failure stops processing and is
// returned with SCWRL's output.
func (conf Config) ProcessDirectory(
	ctx context.Context, dir, out, prefix string) ([]string, error) {

	pdbs, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return nil, err
	}
	if len(pdbs) == 0 {
		return nil, fmt.Errorf("No PDB files found in '%s'.", dir)
	}

	written := make([]string, 0, len(pdbs))
	for _, pdb := range pdbs {
		dst := filepath.Join(out, prefix+"_"+filepath.Base(pdb))
		if err := conf.Run(ctx, pdb, dst); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}

// Run writes a copy of the model in the PDB file in to out with side chains
// added.
func (conf Config) Run(ctx context.Context, in, out string) error {
	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []string{"-i", in, "-o", out}
	logger.Debug("running scwrl",
		"cmd", conf.Exec+" "+strings.Join(args, " "))

	c := exec.CommandContext(ctx, conf.Exec, args...)
	output, err := c.CombinedOutput()
	if err != nil {
		return fmt.Errorf("Error running '%s' on '%s': %w\n%s",
			conf.Exec, in, err, output)
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("'%s' did not write '%s':\n%s", conf.Exec, out, output)
	}
	return nil
}
