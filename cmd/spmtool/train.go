package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/example/go-spm-tools/internal/trainer"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	var (
		spmConfig   string
		input       string
		modelPrefix string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a SentencePiece model from text and a trainer config",
		Long: `Run the SentencePiece trainer with the parameters in the "sentencepiece"
section of a yaml, toml or json file. spm_train is used when available,
otherwise the Python sentencepiece module.`,
		Example: "  spmtool train -c lm/config.yaml -i text.txt.tn -o lm/tokenizer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := trainer.Train(ctx, trainer.Options{
				ConfigPath:   spmConfig,
				Input:        input,
				ModelPrefix:  modelPrefix,
				SpmTrainPath: cfg.Train.SpmTrainPath,
				PythonBin:    cfg.Train.PythonBin,
				Stdout:       cmd.ErrOrStderr(),
				Stderr:       cmd.ErrOrStderr(),
				Logger:       slog.Default(),
			})
			if err != nil {
				return mapTrainError(err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "model: %s\nvocab: %s\n", res.ModelPath, res.VocabPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&spmConfig, "spm-config", "c", "", "Config file with a sentencepiece section")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Training text, one sentence per line")
	cmd.Flags().StringVarP(&modelPrefix, "model_prefix", "o", "", "Output model prefix")
	_ = cmd.MarkFlagRequired("spm-config")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("model_prefix")

	return cmd
}

func mapTrainError(err error) error {
	if errors.Is(err, trainer.ErrNoTrainer) {
		return fmt.Errorf("train failed: install spm_train or `pip install sentencepiece`, or set --train-spm-train-path / --train-python-bin: %w", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("train failed: trainer returned non-zero exit; check stderr details above: %w", err)
	}

	return err
}
