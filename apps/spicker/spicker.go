package spicker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultConfig runs 'spicker' from PATH and keeps the largest cluster.
var DefaultConfig = Config{
	Exec:           "spicker",
	Clusters:       1,
	MaxClusterSize: 200,
}

// Config controls how Spicker is run and how much of its report is kept.
type Config struct {
	// Exec is the Spicker executable. Relative paths are looked up in PATH.
	Exec string `yaml:"exec"`

	// Clusters is the number of clusters that must be in the report.
	// Only the first Clusters clusters are returned.
	Clusters int `yaml:"clusters"`

	// MaxClusterSize is the most members kept for any one cluster. Members
	// closest to the cluster center are kept.
	MaxClusterSize int `yaml:"max_cluster_size"`

	// Logger receives the command being run. If nil, slog.Default is used.
	Logger *slog.Logger `yaml:"-"`
}

// Result is a cluster that has been kept from a Spicker run.
type Result struct {
	// Index is the 1-based position of the cluster in the report.
	Index int

	// Size is the number of models Spicker put in the cluster, including
	// any dropped by MaxClusterSize.
	Size int

	Members  []Member
	Centroid string

	// ListFile contains the path of every kept member, one per line, in
	// rank order.
	ListFile string

	// Capped is true when members were dropped because of MaxClusterSize.
	Capped bool
}

// InsufficientClustersError is returned when Spicker reports fewer clusters
// than were asked for.
type InsufficientClustersError struct {
	Got, Want int
}

func (e *InsufficientClustersError) Error() string {
	return fmt.Sprintf("Only %d clusters returned from Spicker, "+
		"but %d clusters were requested.", e.Got, e.Want)
}

// Run clusters models with Spicker inside dir, which is created if it does
// not exist. Spicker's output is written to spicker.log in dir.
//
// Cancelling ctx kills Spicker.
func (conf Config) Run(ctx context.Context, dir string, models []string) ([]Result, error) {
	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}

	input, err := WriteInput(dir, models)
	if err != nil {
		return nil, err
	}
	logger.Info("wrote spicker input", "dir", dir,
		"models", len(input.Manifest), "residues", input.Length)

	logPath := filepath.Join(dir, LogFile)
	logf, err := os.Create(logPath)
	if err != nil {
		return nil, err
	}
	defer logf.Close()

	c := exec.CommandContext(ctx, conf.Exec)
	c.Dir = dir
	c.Stdout = logf
	c.Stderr = logf
	logger.Debug("running spicker", "cmd", conf.Exec, "dir", dir)
	if err := c.Run(); err != nil {
		return nil, fmt.Errorf("Error running '%s' (see '%s'): %w",
			conf.Exec, logPath, err)
	}

	manifest, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	clusters, err := ParseReport(filepath.Join(dir, ReportFile), manifest)
	if err != nil {
		return nil, err
	}
	logger.Debug("read spicker report", "clusters", len(clusters))
	results, err := conf.Results(dir, clusters)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, SummaryFile), Summary(results, clusters)); err != nil {
		return nil, err
	}
	return results, nil
}

// Results keeps the first conf.Clusters clusters, in report order, and
// writes the member list of each to dir/spicker_cluster_<n>.list.
func (conf Config) Results(dir string, clusters []Cluster) ([]Result, error) {
	want := conf.Clusters
	if want < 1 {
		want = 1
	}
	if len(clusters) < want {
		return nil, &InsufficientClustersError{Got: len(clusters), Want: want}
	}

	results := make([]Result, want)
	for i, c := range clusters[:want] {
		r := Result{
			Index:    i + 1,
			Size:     c.Size,
			Members:  c.Members,
			Centroid: c.Centroid(),
			ListFile: filepath.Join(dir, fmt.Sprintf("spicker_cluster_%d.list", i+1)),
		}
		if conf.MaxClusterSize > 0 && len(r.Members) > conf.MaxClusterSize {
			r.Members = r.Members[:conf.MaxClusterSize]
			r.Capped = true
		}

		var list strings.Builder
		for _, m := range r.Members {
			list.WriteString(m.Path)
			list.WriteByte('\n')
		}
		if err := writeFile(r.ListFile, list.String()); err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

// Summary describes each result in a few lines of plain text. Clusters of
// the report beyond the kept results are listed with their size only, so the
// summary shows how much of the population the kept clusters cover.
func Summary(results []Result, clusters []Cluster) string {
	var b strings.Builder
	b.WriteString("---- Spicker Results ----\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "Cluster: %d\n", r.Index)
		fmt.Fprintf(&b, "* number of models: %d\n", r.Size)
		if r.Capped {
			fmt.Fprintf(&b, "* models kept: %d\n", len(r.Members))
		}
		fmt.Fprintf(&b, "* files are listed in file: %s\n", r.ListFile)
		fmt.Fprintf(&b, "* centroid model is: %s\n", r.Centroid)
		b.WriteString("\n")
	}
	for i := len(results); i < len(clusters); i++ {
		fmt.Fprintf(&b, "Cluster: %d\n", i+1)
		fmt.Fprintf(&b, "* number of models: %d\n\n", clusters[i].Size)
	}
	return b.String()
}
