// Package dispatch decides between streaming a job in one pass and fanning it
// out over partitions of the input file.
//
// A multi-worker job moves through Partitioning, Dispatching,
// AwaitingCompletion and Merging. The working directory <output>.dir keeps
// part.*, out.*, log.* and cmds.sh after the run.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-spm-tools/internal/apply"
	"github.com/example/go-spm-tools/internal/batch"
	"github.com/example/go-spm-tools/internal/partition"
	"github.com/example/go-spm-tools/internal/tokenizer"
)

// ErrStdStreamWorkers is returned when more than one worker is requested with
// "-" as input or output.
var ErrStdStreamWorkers = errors.New("multi-worker mode requires file paths for input and output, not \"-\"")

// Stage names a step of the dispatch state machine.
type Stage string

const (
	StageStreaming    Stage = "streaming"
	StagePartitioning Stage = "partitioning"
	StageDispatching  Stage = "dispatching"
	StageAwaiting     Stage = "awaiting completion"
	StageMerging      Stage = "merging"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Job is a fully parsed apply request.
type Job struct {
	Mode       apply.Mode
	Token      apply.TokenKind
	ModelPath  string
	InputPath  string
	OutputPath string
	Workers    int
}

// Validate checks the job's preconditions.
func (j Job) Validate() error {
	if _, err := apply.ParseMode(string(j.Mode)); err != nil {
		return err
	}
	if _, err := apply.ParseTokenKind(string(j.Token)); err != nil {
		return err
	}
	if j.ModelPath == "" {
		return tokenizer.ErrEmptyPath
	}
	if j.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", j.Workers)
	}
	if j.Workers > 1 && (j.InputPath == apply.StdStream || j.OutputPath == apply.StdStream) {
		return ErrStdStreamWorkers
	}
	return nil
}

// WorkDir returns the working directory of a multi-worker job.
func (j Job) WorkDir() string { return j.OutputPath + ".dir" }

// Dispatcher runs apply jobs.
type Dispatcher struct {
	// Program is re-invoked for each partition; it defaults to the running executable.
	Program string
	// ExtraArgs are appended to every sub-job invocation (e.g. --log-level).
	ExtraArgs []string
	// InProcess runs partitions on goroutines instead of subprocesses.
	InProcess bool
	// Executor overrides the executor chosen from InProcess.
	Executor batch.Executor
	// Load opens a model; it defaults to tokenizer.Load.
	Load   func(path string) (tokenizer.Tokenizer, error)
	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger
}

// Run executes the job: directly for one worker, partitioned otherwise.
func (d *Dispatcher) Run(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	if job.Workers == 1 {
		return d.runSingle(job)
	}
	return d.runParallel(ctx, job)
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d *Dispatcher) load(path string) (tokenizer.Tokenizer, error) {
	if d.Load != nil {
		return d.Load(path)
	}
	return tokenizer.Load(path)
}

func (d *Dispatcher) runSingle(job Job) error {
	tok, err := d.load(job.ModelPath)
	if err != nil {
		return err
	}

	err = apply.Run(apply.Options{
		Tokenizer:  tok,
		Mode:       job.Mode,
		Token:      job.Token,
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Stdin:      d.Stdin,
		Stdout:     d.Stdout,
	})
	if err != nil {
		return stageErr(StageStreaming, err)
	}
	return nil
}

func (d *Dispatcher) runParallel(ctx context.Context, job Job) error {
	log := d.logger()
	wdir := job.WorkDir()

	log.Info("partitioning", "input", job.InputPath, "workdir", wdir, "parts", job.Workers)
	if err := os.MkdirAll(wdir, 0o755); err != nil {
		return stageErr(StagePartitioning, fmt.Errorf("create working directory: %w", err))
	}
	parts, err := partition.Split(job.InputPath, wdir, job.Workers)
	if err != nil {
		return stageErr(StagePartitioning, err)
	}

	log.Info("generating commands", "script", filepath.Join(wdir, "cmds.sh"))
	program, err := d.program()
	if err != nil {
		return stageErr(StageDispatching, err)
	}
	tasks := d.tasks(job, parts)
	if err := batch.WriteScript(filepath.Join(wdir, "cmds.sh"), program, tasks); err != nil {
		return stageErr(StageDispatching, err)
	}

	log.Info("tokenizing parts", "workers", job.Workers, "in_process", d.InProcess)
	results := d.executor(job, program).Execute(ctx, tasks, job.Workers)
	if failed := batch.Failures(results); len(failed) > 0 {
		return stageErr(StageAwaiting, &PartitionError{Total: len(results), Failed: failed})
	}

	log.Info("merging results", "output", job.OutputPath)
	outs := make([]string, len(tasks))
	for i, t := range tasks {
		outs[i] = t.Output
	}
	if err := partition.Concat(job.OutputPath, outs); err != nil {
		return stageErr(StageMerging, err)
	}

	return nil
}

func (d *Dispatcher) program() (string, error) {
	if d.Program != "" {
		return d.Program, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable for sub-jobs: %w", err)
	}
	return exe, nil
}

// tasks builds one single-worker sub-job per part, with out.* and log.*
// names derived from the part name.
func (d *Dispatcher) tasks(job Job, parts []string) []batch.Task {
	tasks := make([]batch.Task, len(parts))
	for i, part := range parts {
		out := partition.Derive(part, partition.OutPrefix)
		args := []string{
			"apply",
			"-n", "1",
			"-x", string(job.Mode),
			"-m", job.ModelPath,
			"-t", string(job.Token),
			"-i", part,
			"-o", out,
		}
		args = append(args, d.ExtraArgs...)

		tasks[i] = batch.Task{
			Name:    partition.SuffixOf(part),
			Args:    args,
			Input:   part,
			Output:  out,
			LogPath: partition.Derive(part, partition.LogPrefix),
		}
	}
	return tasks
}

func (d *Dispatcher) executor(job Job, program string) batch.Executor {
	if d.Executor != nil {
		return d.Executor
	}
	if d.InProcess {
		return batch.FuncExecutor{Fn: func(_ context.Context, task batch.Task, _ io.Writer) error {
			tok, err := d.load(job.ModelPath)
			if err != nil {
				return err
			}
			return apply.Run(apply.Options{
				Tokenizer:  tok,
				Mode:       job.Mode,
				Token:      job.Token,
				InputPath:  task.Input,
				OutputPath: task.Output,
			})
		}}
	}
	return batch.ProcessExecutor{Program: program, Logger: d.logger()}
}
