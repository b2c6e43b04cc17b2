package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Train     TrainConfig     `mapstructure:"train"`
	TN        TNConfig        `mapstructure:"tn"`
}

type TokenizerConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

type DispatchConfig struct {
	Workers  int    `mapstructure:"workers"`
	Executor string `mapstructure:"executor"`
	Binary   string `mapstructure:"binary"`
}

type TrainConfig struct {
	SpmTrainPath string `mapstructure:"spm_train_path"`
	PythonBin    string `mapstructure:"python_bin"`
}

type TNConfig struct {
	KeepApostrophe bool `mapstructure:"keep_apostrophe"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Tokenizer: TokenizerConfig{
			ModelPath: "",
		},
		Dispatch: DispatchConfig{
			Workers:  1,
			Executor: ExecutorProcess,
			Binary:   "",
		},
		Train: TrainConfig{
			SpmTrainPath: "spm_train",
			PythonBin:    "",
		},
		TN: TNConfig{
			KeepApostrophe: true,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("tokenizer-model-path", defaults.Tokenizer.ModelPath, "Default SentencePiece model path")
	fs.String("dispatch-executor", defaults.Dispatch.Executor, "Sub-job executor for multi-worker apply (process|inprocess)")
	fs.String("dispatch-binary", defaults.Dispatch.Binary, "Program re-invoked for sub-jobs (defaults to this executable)")
	fs.String("train-spm-train-path", defaults.Train.SpmTrainPath, "Path to spm_train executable")
	fs.String("train-python-bin", defaults.Train.PythonBin, "Python interpreter used when spm_train is unavailable")
	fs.Bool("tn-keep-apostrophe", defaults.TN.KeepApostrophe, "Keep apostrophes when stripping punctuation")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("SPMTOOL")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("spmtool")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	executor, err := NormalizeExecutor(cfg.Dispatch.Executor)
	if err != nil {
		return Config{}, err
	}
	cfg.Dispatch.Executor = executor

	if cfg.Dispatch.Workers < 1 {
		cfg.Dispatch.Workers = 1
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("tokenizer.model_path", c.Tokenizer.ModelPath)
	v.SetDefault("dispatch.workers", c.Dispatch.Workers)
	v.SetDefault("dispatch.executor", c.Dispatch.Executor)
	v.SetDefault("dispatch.binary", c.Dispatch.Binary)
	v.SetDefault("train.spm_train_path", c.Train.SpmTrainPath)
	v.SetDefault("train.python_bin", c.Train.PythonBin)
	v.SetDefault("tn.keep_apostrophe", c.TN.KeepApostrophe)
}

// flagKeys maps config keys to their flag names. Flags are bound per key so
// config file values still apply when a flag is registered but not set.
var flagKeys = map[string]string{
	"log_level":            "log-level",
	"tokenizer.model_path": "tokenizer-model-path",
	"dispatch.executor":    "dispatch-executor",
	"dispatch.binary":      "dispatch-binary",
	"train.spm_train_path": "train-spm-train-path",
	"train.python_bin":     "train-python-bin",
	"tn.keep_apostrophe":   "tn-keep-apostrophe",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
