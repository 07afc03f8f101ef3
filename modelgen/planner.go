package modelgen

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
)

// Seeds are drawn uniformly from [SeedMin, SeedMax).
const (
	SeedMin = 1000000
	SeedMax = 4000000

	// MaxSeeds is the number of distinct seeds, and so of workers.
	MaxSeeds = SeedMax - SeedMin
)

// SeedLog is the name of the file, relative to the work directory, that
// records the seed of every worker before any worker is started.
const SeedLog = "seedlist"

// Job is a single worker's share of the models to generate.
//
// A Job is created by Plan and owned by the Supervisor while it runs. It is
// terminal once ExitCode is set.
type Job struct {
	// Index is the zero based worker index. Directories and file prefixes
	// use Index+1.
	Index int
	Seed  int

	// Models is the number of structures this worker must generate.
	Models int

	// Dir is the worker's private working directory and Log is the file
	// receiving the worker's combined stdout and stderr.
	Dir string
	Log string

	ExitCode *int
}

// Number returns the one based worker number used in file names.
func (j *Job) Number() int {
	return j.Index + 1
}

// Done reports whether the job has reached a terminal state.
func (j *Job) Done() bool {
	return j.ExitCode != nil
}

// Succeeded reports whether the job finished with exit code 0.
func (j *Job) Succeeded() bool {
	return j.ExitCode != nil && *j.ExitCode == 0
}

func (j *Job) String() string {
	return fmt.Sprintf("worker %d (seed %d, %d models)",
		j.Number(), j.Seed, j.Models)
}

// Split partitions total models over the given number of workers. Every
// worker gets total/workers models, and the remainder is handed out one at a
// time to the first workers in index order.
//
// For example, Split(7, 3) is [3 2 2].
func Split(total, workers int) ([]int, error) {
	if workers <= 0 {
		return nil, &ConfigError{"workers", workers, "must be at least 1"}
	}
	if err := CheckSeedCount("workers", workers); err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, &ConfigError{"models", total, "must be at least 1"}
	}

	each, remainder := total/workers, total%workers
	counts := make([]int, workers)
	for i := range counts {
		counts[i] = each
		if i < remainder {
			counts[i]++
		}
	}
	return counts, nil
}

// CheckSeedCount returns a *ConfigError naming field when n distinct seeds
// cannot be drawn.
func CheckSeedCount(field string, n int) error {
	if n < 0 {
		return &ConfigError{field, n, "must not be negative"}
	}
	if n > MaxSeeds {
		return &ConfigError{field, n,
			fmt.Sprintf("there are only %d distinct seeds", MaxSeeds)}
	}
	return nil
}

// Seeds returns n pairwise distinct seeds drawn from rng. It returns nil when
// n fails CheckSeedCount.
//
// Collisions are simply redrawn. The seed space has three million values,
// so this terminates quickly for any realistic number of workers.
func Seeds(rng *rand.Rand, n int) []int {
	if CheckSeedCount("n", n) != nil {
		return nil
	}
	seen := make(map[int]bool, n)
	seeds := make([]int, 0, n)
	for len(seeds) < n {
		seed := SeedMin + rng.IntN(SeedMax-SeedMin)
		if seen[seed] {
			continue
		}
		seen[seed] = true
		seeds = append(seeds, seed)
	}
	return seeds
}

// WriteSeeds writes one seed per line to the file at path, truncating it.
func WriteSeeds(path string, seeds []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Could not create seed log: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, seed := range seeds {
		fmt.Fprintf(w, "%d\n", seed)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("Could not write seed log '%s': %w", path, err)
	}
	return f.Close()
}

// Plan splits total models over workers, assigns each worker a distinct
// seed and records the seeds in dir/seedlist. The returned jobs are not yet
// started; their directories are created by the Supervisor.
func Plan(dir string, total, workers int, rng *rand.Rand) ([]*Job, error) {
	counts, err := Split(total, workers)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}

	seeds := Seeds(rng, workers)
	if err := WriteSeeds(filepath.Join(dir, SeedLog), seeds); err != nil {
		return nil, err
	}

	jobs := make([]*Job, workers)
	for i := range jobs {
		wdir := filepath.Join(dir, fmt.Sprintf("worker_%d", i+1))
		jobs[i] = &Job{
			Index:  i,
			Seed:   seeds[i],
			Models: counts[i],
			Dir:    wdir,
			Log:    filepath.Join(wdir, fmt.Sprintf("worker_%d.log", i+1)),
		}
	}
	return jobs, nil
}
