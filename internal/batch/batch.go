// Package batch runs a list of independent tasks with bounded concurrency and
// reports a result per task.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work. Process executors use Args; in-process executors
// use Input and Output. LogPath receives the task's combined output.
type Task struct {
	Name    string
	Args    []string
	Input   string
	Output  string
	LogPath string
}

// Result is the outcome of a single task.
type Result struct {
	Task     Task
	Err      error
	ExitCode int
	Duration time.Duration
}

// Failed reports whether the task did not complete successfully.
func (r Result) Failed() bool { return r.Err != nil }

// Failures returns the failed results, in task order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Executor runs tasks with at most limit in flight and blocks until all of
// them finish. One task failing does not stop the others.
type Executor interface {
	Execute(ctx context.Context, tasks []Task, limit int) []Result
}

type taskFunc func(ctx context.Context, task Task) (exitCode int, err error)

func execute(ctx context.Context, tasks []Task, limit int, fn taskFunc) []Result {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()
			code, err := fn(gctx, task)
			results[i] = Result{Task: task, Err: err, ExitCode: code, Duration: time.Since(start)}
			return nil // failures are reported per task, not by cancelling the group
		})
	}

	_ = g.Wait()

	return results
}

// ProcessExecutor spawns Program once per task with the task's Args.
// Stdout and stderr go to the task's LogPath, or to Stdout/Stderr when the
// task has no log file.
type ProcessExecutor struct {
	Program string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
}

func (e ProcessExecutor) Execute(ctx context.Context, tasks []Task, limit int) []Result {
	return execute(ctx, tasks, limit, e.run)
}

func (e ProcessExecutor) run(ctx context.Context, task Task) (int, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, e.Program, task.Args...)

	if task.LogPath != "" {
		logFile, err := os.Create(task.LogPath)
		if err != nil {
			return -1, fmt.Errorf("create log %s: %w", task.LogPath, err)
		}
		defer logFile.Close()

		cmd.Stdout = logFile
		cmd.Stderr = logFile
	} else {
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
	}

	logger.Debug("spawning task", "task", task.Name, "program", e.Program, "args", task.Args)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), fmt.Errorf("task %s: %w", task.Name, err)
	}
	return -1, fmt.Errorf("task %s: %w", task.Name, err)
}

// FuncExecutor runs Fn in the current process for every task, writing the
// task's log output to LogPath when set.
type FuncExecutor struct {
	Fn func(ctx context.Context, task Task, log io.Writer) error
}

func (e FuncExecutor) Execute(ctx context.Context, tasks []Task, limit int) []Result {
	return execute(ctx, tasks, limit, e.run)
}

func (e FuncExecutor) run(ctx context.Context, task Task) (code int, err error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	var logw io.Writer = io.Discard
	if task.LogPath != "" {
		logFile, err := os.Create(task.LogPath)
		if err != nil {
			return -1, fmt.Errorf("create log %s: %w", task.LogPath, err)
		}
		defer logFile.Close()
		logw = logFile
	}

	defer func() {
		if r := recover(); r != nil {
			code, err = -1, fmt.Errorf("task %s panicked: %v", task.Name, r)
			_, _ = fmt.Fprintln(logw, err)
		}
	}()

	if err := e.Fn(ctx, task, logw); err != nil {
		_, _ = fmt.Fprintln(logw, err)
		return 1, fmt.Errorf("task %s: %w", task.Name, err)
	}
	return 0, nil
}
