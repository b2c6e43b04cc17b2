package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/go-spm-tools/internal/doctor"
	"github.com/example/go-spm-tools/internal/tokenizer"
	"github.com/example/go-spm-tools/internal/trainer"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var skipTrainer bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local trainer and model checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			python := cfg.Train.PythonBin

			dcfg := doctor.Config{
				SpmTrainPath: func() (string, error) {
					return exec.LookPath(cfg.Train.SpmTrainPath)
				},
				PythonVersion: func() (string, error) {
					return probePythonVersion(python)
				},
				SentencePieceModule: func() error {
					bin, err := trainer.DetectPython(python)
					if err != nil {
						return err
					}
					return trainer.CheckPythonModule(cmd.Context(), bin)
				},
				SkipTrainer: skipTrainer,
				ModelPath:   cfg.Tokenizer.ModelPath,
				LoadModel:   loadModelSize,
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipTrainer, "skip-trainer", false, "Skip spm_train and Python checks")

	return cmd
}

// loadModelSize opens the model with the tokenizer backends and returns its
// vocabulary size.
func loadModelSize(path string) (int, error) {
	if _, err := tokenizer.Load(path); err != nil {
		return 0, err
	}
	vocab, err := tokenizer.LoadVocab(path)
	if err != nil {
		return 0, err
	}
	return vocab.Size(), nil
}

// probePythonVersion runs the interpreter's --version and returns the version string.
func probePythonVersion(preferred string) (string, error) {
	bin, err := trainer.DetectPython(preferred)
	if err != nil {
		return "", errors.New("python3/python not found on PATH")
	}

	out, err := exec.CommandContext(context.Background(), bin, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", bin, err)
	}

	// Output is e.g. "Python 3.11.4\n"
	raw := strings.TrimSpace(string(out))
	raw = strings.TrimPrefix(raw, "Python ")
	if raw == "" {
		return "", fmt.Errorf("%s --version printed nothing", bin)
	}
	return raw, nil
}

