package modelgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

// fakeGenerator writes job.Models small PDB files into the working
// directory, like the real generator does with -out:path.
func fakeGenerator(job *Job) ([]string, error) {
	script := fmt.Sprintf(`i=1
while [ $i -le %d ]; do
  echo "REMARK seed %d model $i" > S_0000000$i.pdb
  i=$((i+1))
done
echo "generated %d models"`, job.Models, job.Seed, job.Models)
	return []string{"sh", "-c", script}, nil
}

func planJobs(t *testing.T, total, workers int) (string, []*Job) {
	t.Helper()
	dir := t.TempDir()
	jobs, err := Plan(dir, total, workers, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	return dir, jobs
}

func TestRunAll(t *testing.T) {
	requireShell(t)
	_, jobs := planJobs(t, 7, 3)

	sup := &Supervisor{
		Command:      fakeGenerator,
		PollInterval: 10 * time.Millisecond,
		Logger:       quietLogger(),
	}
	codes, err := sup.RunAll(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, codes)

	for _, job := range jobs {
		require.True(t, job.Succeeded())
		pdbs, err := Models(job.Dir)
		require.NoError(t, err)
		assert.Len(t, pdbs, job.Models)

		log, err := os.ReadFile(job.Log)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("generated %d models\n", job.Models),
			string(log))
	}
}

func TestRunAllFailedWorker(t *testing.T) {
	requireShell(t)
	_, jobs := planJobs(t, 6, 3)

	sup := &Supervisor{
		Command: func(job *Job) ([]string, error) {
			if job.Index == 1 {
				return []string{"sh", "-c", "echo boom; exit 3"}, nil
			}
			return fakeGenerator(job)
		},
		Logger: quietLogger(),
	}
	codes, err := sup.RunAll(context.Background(), jobs)
	require.Error(t, err)
	assert.Equal(t, []int{0, 3, 0}, codes)

	var werr *WorkerError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 1, werr.Index)
	assert.Equal(t, 3, werr.ExitCode)
	assert.Equal(t, jobs[1].Log, werr.Log)

	// The other workers still ran to completion.
	assert.True(t, jobs[0].Succeeded())
	assert.True(t, jobs[2].Succeeded())
}

func TestRunAllTruncatesLog(t *testing.T) {
	requireShell(t)
	_, jobs := planJobs(t, 1, 1)
	require.NoError(t, os.MkdirAll(jobs[0].Dir, 0777))
	require.NoError(t, os.WriteFile(jobs[0].Log, []byte("stale output\n"), 0644))

	sup := &Supervisor{
		Command: func(*Job) ([]string, error) {
			return []string{"sh", "-c", "echo fresh"}, nil
		},
		Logger: quietLogger(),
	}
	_, err := sup.RunAll(context.Background(), jobs)
	require.NoError(t, err)

	log, err := os.ReadFile(jobs[0].Log)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(log))
}

func TestRunAllCannotStart(t *testing.T) {
	requireShell(t)
	_, jobs := planJobs(t, 4, 2)

	sup := &Supervisor{
		Command: func(job *Job) ([]string, error) {
			if job.Index == 1 {
				return []string{filepath.Join(t.TempDir(), "no-such-binary")}, nil
			}
			return []string{"sh", "-c", "sleep 30"}, nil
		},
		Logger: quietLogger(),
	}
	start := time.Now()
	codes, err := sup.RunAll(context.Background(), jobs)
	assert.Nil(t, codes)

	var werr *WorkerError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 1, werr.Index)
	assert.Less(t, time.Since(start), 20*time.Second,
		"already started workers should have been killed")
}

func TestRunAllCancelled(t *testing.T) {
	requireShell(t)
	_, jobs := planJobs(t, 2, 2)

	ctx, cancel := context.WithCancel(context.Background())
	sup := &Supervisor{
		Command: func(*Job) ([]string, error) {
			return []string{"sh", "-c", "sleep 30"}, nil
		},
		Logger: quietLogger(),
	}
	time.AfterFunc(100*time.Millisecond, cancel)
	_, err := sup.RunAll(ctx, jobs)
	require.ErrorIs(t, err, context.Canceled)
}
