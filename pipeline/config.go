package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TuftsBCB/decoys/apps/rosetta"
	"github.com/TuftsBCB/decoys/apps/scwrl"
	"github.com/TuftsBCB/decoys/apps/spicker"
	"github.com/TuftsBCB/decoys/modelgen"
)

// Config is everything needed to generate and cluster one set of decoys.
type Config struct {
	// WorkDir holds the seed list, the worker directories, the models
	// directory and the clustering run.
	WorkDir string `yaml:"work_dir"`

	// Workers is the number of generator processes run at once.
	Workers int `yaml:"workers"`

	// Models is the total number of models generated over all workers.
	Models int `yaml:"models"`

	// ModelsDir defaults to WorkDir/models.
	ModelsDir string `yaml:"models_dir"`

	// ImportModels skips generation and clusters the PDB files already in
	// this directory.
	ImportModels string `yaml:"import_models"`

	// Seed seeds the generator of worker seeds. Zero picks a random seed,
	// which is logged.
	Seed uint64 `yaml:"seed"`

	PollInterval time.Duration `yaml:"poll_interval"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// RosettaDir is a Rosetta installation. When set and Rosetta.Version
	// is zero, the version is detected from it.
	RosettaDir string         `yaml:"rosetta_dir"`
	Rosetta    rosetta.Config `yaml:"rosetta"`

	UseScwrl bool           `yaml:"use_scwrl"`
	Scwrl    scwrl.Config   `yaml:"scwrl"`
	Spicker  spicker.Config `yaml:"spicker"`
}

// DefaultConfig returns the configuration used for any field that is not
// set in a configuration file.
func DefaultConfig() *Config {
	rc := rosetta.DefaultConfig
	rc.Version = 0
	return &Config{
		WorkDir:      ".",
		Workers:      1,
		Models:       1000,
		PollInterval: modelgen.DefaultPollInterval,
		LogLevel:     "info",
		Rosetta:      rc,
		Scwrl:        scwrl.DefaultConfig,
		Spicker:      spicker.DefaultConfig,
	}
}

// Load reads a YAML configuration file on top of DefaultConfig. Unknown keys
// are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("Could not read configuration '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise only fail after workers
// have started.
func (cfg *Config) Validate() error {
	if cfg.WorkDir == "" {
		return &modelgen.ConfigError{Field: "work_dir", Value: cfg.WorkDir,
			Msg: "a working directory is required"}
	}
	if cfg.ImportModels == "" {
		if cfg.Workers < 1 {
			return &modelgen.ConfigError{Field: "workers", Value: cfg.Workers,
				Msg: "at least one worker is required"}
		}
		if cfg.Models < 1 {
			return &modelgen.ConfigError{Field: "models", Value: cfg.Models,
				Msg: "at least one model is required"}
		}
	}
	if cfg.Spicker.Clusters < 1 {
		return &modelgen.ConfigError{Field: "spicker.clusters",
			Value: cfg.Spicker.Clusters, Msg: "at least one cluster is required"}
	}
	if cfg.Spicker.MaxClusterSize < 1 {
		return &modelgen.ConfigError{Field: "spicker.max_cluster_size",
			Value: cfg.Spicker.MaxClusterSize, Msg: "must be positive"}
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return &modelgen.ConfigError{Field: "log_level", Value: cfg.LogLevel,
			Msg: err.Error()}
	}
	return nil
}

// resolve makes every directory absolute and fills in defaults that depend
// on other fields. Workers run in their own directories, so relative paths
// would not survive.
func (cfg *Config) resolve() error {
	abs := func(p *string) error {
		if *p == "" {
			return nil
		}
		a, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = a
		return nil
	}
	if err := abs(&cfg.WorkDir); err != nil {
		return err
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = filepath.Join(cfg.WorkDir, "models")
	}
	for _, p := range []*string{&cfg.ModelsDir, &cfg.ImportModels} {
		if err := abs(p); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the configured log level, or info if it is invalid.
func (cfg *Config) Level() slog.Level {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
