package modelgen

import "fmt"

// ConfigError is returned when the planner (or a pipeline configuration) is
// given values that can never produce a valid set of jobs. It is always
// returned before any process is started.
type ConfigError struct {
	Field string
	Value any
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Invalid configuration: %s = %v: %s",
		e.Field, e.Value, e.Msg)
}

// WorkerError reports a worker that did not produce usable output: either it
// exited with a nonzero exit code, or it exited cleanly without writing any
// structure files. A single WorkerError fails the whole batch.
type WorkerError struct {
	Index    int
	ExitCode int
	Log      string
	Msg      string
	Err      error
}

func (e *WorkerError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = fmt.Sprintf("exited with code %d", e.ExitCode)
	}
	s := fmt.Sprintf("Worker %d %s (see '%s')", e.Index+1, msg, e.Log)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// FatalError wraps any failure that aborts consolidation part way through.
// Files already written to the models directory are left in place.
type FatalError struct {
	Stage string
	Path  string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s failed at '%s': %s", e.Stage, e.Path, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
