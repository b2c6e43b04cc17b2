package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.Tokenizer.ModelPath != "" {
		t.Errorf("Tokenizer.ModelPath = %q; want empty", cfg.Tokenizer.ModelPath)
	}

	if cfg.Dispatch.Workers != 1 {
		t.Errorf("Dispatch.Workers = %d; want 1", cfg.Dispatch.Workers)
	}

	if cfg.Dispatch.Executor != ExecutorProcess {
		t.Errorf("Dispatch.Executor = %q; want %q", cfg.Dispatch.Executor, ExecutorProcess)
	}

	if cfg.Train.SpmTrainPath != "spm_train" {
		t.Errorf("Train.SpmTrainPath = %q; want %q", cfg.Train.SpmTrainPath, "spm_train")
	}

	if !cfg.TN.KeepApostrophe {
		t.Error("TN.KeepApostrophe = false; want true")
	}
}

// --- NormalizeExecutor ---

func TestNormalizeExecutor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"process canonical", "process", "process", false},
		{"inprocess canonical", "inprocess", "inprocess", false},
		{"in-process alias", "in-process", "inprocess", false},
		{"subprocess alias", "subprocess", "process", false},
		{"mixed case", "InProcess", "inprocess", false},
		{"surrounding spaces", "  process  ", "process", false},
		{"empty defaults to process", "", "process", false},
		{"invalid value", "threads", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeExecutor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeExecutor(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeExecutor(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeExecutor(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v; wantErr=%v", tt.input, err, tt.wantErr)
		}

		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"log-level", "info"},
		{"tokenizer-model-path", ""},
		{"dispatch-executor", "process"},
		{"train-spm-train-path", "spm_train"},
		{"tn-keep-apostrophe", "true"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	cfg, err := Load(LoadOptions{
		Cmd:      binder,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dispatch.Workers != defaults.Dispatch.Workers {
		t.Errorf("Dispatch.Workers = %d; want %d", cfg.Dispatch.Workers, defaults.Dispatch.Workers)
	}

	if cfg.Dispatch.Executor != defaults.Dispatch.Executor {
		t.Errorf("Dispatch.Executor = %q; want %q", cfg.Dispatch.Executor, defaults.Dispatch.Executor)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err := fs.Parse([]string{
		"--dispatch-executor=inprocess",
		"--tokenizer-model-path=m.model",
		"--log-level=debug",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:      &fakeBinder{fs: fs},
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dispatch.Executor != ExecutorInProcess {
		t.Errorf("Dispatch.Executor = %q; want %q", cfg.Dispatch.Executor, ExecutorInProcess)
	}

	if cfg.Tokenizer.ModelPath != "m.model" {
		t.Errorf("Tokenizer.ModelPath = %q; want %q", cfg.Tokenizer.ModelPath, "m.model")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPMTOOL_LOG_LEVEL", "warn")
	t.Setenv("SPMTOOL_DISPATCH_WORKERS", "6")

	cfg, err := Load(LoadOptions{
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Dispatch.Workers != 6 {
		t.Errorf("Dispatch.Workers = %d; want 6", cfg.Dispatch.Workers)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile := filepath.Join(dir, "spmtool.yaml")

	content := `
log_level: error
tokenizer:
  model_path: lm/tokenizer.model
dispatch:
  workers: 16
  executor: inprocess
tn:
  keep_apostrophe: false
`

	err := os.WriteFile(cfgFile, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// Flags registered but not set must not shadow file values.
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Tokenizer.ModelPath != "lm/tokenizer.model" {
		t.Errorf("Tokenizer.ModelPath = %q; want %q", cfg.Tokenizer.ModelPath, "lm/tokenizer.model")
	}

	if cfg.Dispatch.Workers != 16 {
		t.Errorf("Dispatch.Workers = %d; want 16", cfg.Dispatch.Workers)
	}

	if cfg.Dispatch.Executor != ExecutorInProcess {
		t.Errorf("Dispatch.Executor = %q; want %q", cfg.Dispatch.Executor, ExecutorInProcess)
	}

	if cfg.TN.KeepApostrophe {
		t.Error("TN.KeepApostrophe = true; want false")
	}
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := os.WriteFile(filepath.Join(dir, "spmtool.yaml"), []byte("log_level: debug\n"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_InvalidExecutor(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPMTOOL_DISPATCH_EXECUTOR", "threads")

	_, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err == nil {
		t.Error("Load() = nil; want error for invalid executor")
	}
}

func TestLoad_ClampsWorkers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPMTOOL_DISPATCH_WORKERS", "0")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dispatch.Workers != 1 {
		t.Errorf("Dispatch.Workers = %d; want 1", cfg.Dispatch.Workers)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	// Write invalid YAML
	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/spmtool.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}
