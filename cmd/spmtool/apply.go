package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/example/go-spm-tools/internal/apply"
	"github.com/example/go-spm-tools/internal/config"
	"github.com/example/go-spm-tools/internal/dispatch"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var (
		numWorkers int
		mode       string
		modelPath  string
		token      string
		input      string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Encode or decode text with a SentencePiece model",
		Long: `Apply a SentencePiece model line by line.

With -n greater than 1 the input is split into parts under <output>.dir,
each part is processed by a single-worker sub-job, and the results are
merged back in order. "-" selects stdin/stdout and requires -n 1.`,
		Example: `  spmtool apply -m lm/tokenizer.model -i text.txt -o text.pieces
  spmtool apply -n 8 -t id -m lm/tokenizer.model -i text.txt -o text.ids
  echo "▁he llo" | spmtool apply -x decode -m lm/tokenizer.model`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			job, err := buildJob(jobFlags{
				workers:        numWorkers,
				workersChanged: cmd.Flags().Changed("num_workers"),
				mode:           mode,
				token:          token,
				model:          modelPath,
				input:          input,
				output:         output,
			}, cfg)
			if err != nil {
				return err
			}

			d := &dispatch.Dispatcher{
				Program:   cfg.Dispatch.Binary,
				ExtraArgs: []string{"--log-level", cfg.LogLevel},
				InProcess: cfg.Dispatch.Executor == config.ExecutorInProcess,
				Stdin:     cmd.InOrStdin(),
				Stdout:    cmd.OutOrStdout(),
				Logger:    slog.Default(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return mapApplyError(d.Run(ctx, job), job)
		},
	}

	cmd.Flags().IntVarP(&numWorkers, "num_workers", "n", 1, "Number of parallel workers (default from dispatch.workers)")
	cmd.Flags().StringVarP(&mode, "mode", "x", string(apply.ModeEncode), "encode|decode")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "SentencePiece model path (default from tokenizer.model_path)")
	cmd.Flags().StringVarP(&token, "token", "t", string(apply.TokenPiece), "piece|id")
	cmd.Flags().StringVarP(&input, "input", "i", apply.StdStream, `Input file, "-" for stdin`)
	cmd.Flags().StringVarP(&output, "output", "o", apply.StdStream, `Output file, "-" for stdout`)

	return cmd
}

type jobFlags struct {
	workers        int
	workersChanged bool
	mode           string
	token          string
	model          string
	input          string
	output         string
}

// buildJob resolves flags against config defaults and validates the result.
func buildJob(f jobFlags, cfg config.Config) (dispatch.Job, error) {
	mode, err := apply.ParseMode(f.mode)
	if err != nil {
		return dispatch.Job{}, err
	}
	kind, err := apply.ParseTokenKind(f.token)
	if err != nil {
		return dispatch.Job{}, err
	}

	workers := f.workers
	if !f.workersChanged {
		workers = cfg.Dispatch.Workers
	}

	model := f.model
	if model == "" {
		model = cfg.Tokenizer.ModelPath
	}
	if model == "" {
		return dispatch.Job{}, errors.New("model path is required; pass -m or set tokenizer.model_path")
	}

	job := dispatch.Job{
		Mode:       mode,
		Token:      kind,
		ModelPath:  model,
		InputPath:  f.input,
		OutputPath: f.output,
		Workers:    workers,
	}
	if err := job.Validate(); err != nil {
		return dispatch.Job{}, err
	}
	return job, nil
}

func mapApplyError(err error, job dispatch.Job) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("apply failed: sub-job executable not found; set --dispatch-binary or SPMTOOL_DISPATCH_BINARY: %w", err)
	}

	var perr *dispatch.PartitionError
	if errors.As(err, &perr) {
		script := filepath.Join(job.WorkDir(), "cmds.sh")
		return fmt.Errorf("apply failed: %w; fix and re-run with `spmtool run-para -n %d %s` then `spmtool merge -o %s %s`",
			err, job.Workers, script, job.OutputPath, job.WorkDir())
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("apply interrupted: %w", err)
	}

	return err
}
