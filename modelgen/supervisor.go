package modelgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is how often the Supervisor reports progress while
// workers are running.
const DefaultPollInterval = 5 * time.Second

// CommandFunc returns the full command line (executable first) that
// generates the models for job. It is called once per job before any
// process is started.
type CommandFunc func(job *Job) ([]string, error)

// Supervisor runs one external process per Job and waits for all of them.
//
// There is no timeout and no retry: a worker runs for as long as it needs
// to, and any worker that exits with a nonzero code fails the batch.
type Supervisor struct {
	Command      CommandFunc
	PollInterval time.Duration
	Logger       *slog.Logger
}

type worker struct {
	pos int
	job *Job
	cmd *exec.Cmd
	log *os.File
}

// RunAll creates each job's directory, starts every worker and waits for
// all of them to exit. The exit code of job i is at index i of the returned
// slice, and is also recorded on the job itself.
//
// If any worker cannot be started, workers that were already started are
// killed and a *WorkerError is returned without exit codes. Otherwise every
// worker is waited for, and one *WorkerError per failed worker is returned
// (joined with errors.Join).
//
// Cancelling ctx kills all running workers.
func (s *Supervisor) RunAll(ctx context.Context, jobs []*Job) ([]int, error) {
	if s.Command == nil {
		return nil, errors.New("Supervisor has no command to run")
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	codes := make([]int, len(jobs))
	workers := make([]*worker, 0, len(jobs))
	for pos, job := range jobs {
		if job.Models == 0 {
			// Nothing to generate, so there is no process to run.
			code := 0
			job.ExitCode = &code
			logger.Debug("skipping worker with no models", "worker", job.Number())
			continue
		}
		w, err := s.start(runCtx, job, logger)
		if err != nil {
			cancel()
			for _, started := range workers {
				started.cmd.Wait()
				started.log.Close()
			}
			return nil, err
		}
		w.pos = pos
		workers = append(workers, w)
	}

	var g errgroup.Group
	var completed atomic.Int64
	for _, w := range workers {
		g.Go(func() error {
			defer w.log.Close()

			start := time.Now()
			err := w.cmd.Wait()
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return &WorkerError{
					Index: w.job.Index, ExitCode: -1, Log: w.job.Log,
					Msg: "could not be waited on", Err: err,
				}
			}

			code := w.cmd.ProcessState.ExitCode()
			codes[w.pos] = code
			w.job.ExitCode = &code
			completed.Add(1)
			logger.Info("worker finished",
				"worker", w.job.Number(), "exit_code", code,
				"elapsed", time.Since(start).Round(time.Second))
			return nil
		})
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var err error
wait:
	for {
		select {
		case err = <-done:
			break wait
		case <-ticker.C:
			logger.Debug("waiting for workers",
				"complete", completed.Load(), "total", len(workers))
		}
	}
	if err != nil {
		return codes, err
	}
	if ctx.Err() != nil {
		return codes, fmt.Errorf("Workers were cancelled: %w", ctx.Err())
	}

	var failed []error
	for i, code := range codes {
		if code != 0 {
			job := jobs[i]
			failed = append(failed, &WorkerError{
				Index: job.Index, ExitCode: code, Log: job.Log,
			})
		}
	}
	return codes, errors.Join(failed...)
}

// start prepares the job's directory and log file and launches its process.
// The log is truncated on every start.
func (s *Supervisor) start(
	ctx context.Context, job *Job, logger *slog.Logger) (*worker, error) {

	fail := func(msg string, err error) error {
		return &WorkerError{
			Index: job.Index, ExitCode: -1, Log: job.Log, Msg: msg, Err: err,
		}
	}
	if err := os.MkdirAll(job.Dir, 0777); err != nil {
		return nil, fail("could not create its directory", err)
	}
	argv, err := s.Command(job)
	if err != nil {
		return nil, fail("has no valid command", err)
	}
	if len(argv) == 0 {
		return nil, fail("has no valid command", errors.New("empty command"))
	}
	logf, err := os.OpenFile(job.Log, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fail("could not open its log", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = job.Dir
	cmd.Stdout = logf
	cmd.Stderr = logf

	logger.Debug("starting worker", "worker", job.Number(), "seed", job.Seed,
		"models", job.Models, "dir", job.Dir)
	logger.Debug("worker command", "worker", job.Number(),
		"cmd", strings.Join(argv, " "))
	if err := cmd.Start(); err != nil {
		logf.Close()
		return nil, fail("could not be started", err)
	}
	return &worker{job: job, cmd: cmd, log: logf}, nil
}
