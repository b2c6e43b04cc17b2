package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/example/go-spm-tools/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "spmtool",
		Short:         "SentencePiece tokenizer tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newTNCmd())
	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newVocabCmd())
	cmd.AddCommand(newRunParaCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

// requireConfig returns the config loaded by the root pre-run hook. Load
// always resolves an executor, so an empty one means it never ran.
func requireConfig() (config.Config, error) {
	if activeCfg.Dispatch.Executor == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
