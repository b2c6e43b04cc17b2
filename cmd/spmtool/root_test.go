package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/example/go-spm-tools/internal/config"
)

// TestMain lets the test binary stand in for spmtool when a test re-invokes
// it as a sub-job.
func TestMain(m *testing.M) {
	if os.Getenv("SPMTOOL_TEST_RUN_MAIN") == "1" {
		main()
		os.Exit(0)
	}

	os.Exit(m.Run())
}

// runCLI executes the root command with args in a scratch working directory.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig; cfgFile = "" })

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()

	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"apply", "merge", "tn", "train", "vocab", "run-para", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}

	if root.PersistentFlags().Lookup("dispatch-executor") == nil {
		t.Error("expected config flags to be registered as persistent flags")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Dispatch.Executor != config.ExecutorProcess {
		t.Errorf("unexpected executor: %q", got.Dispatch.Executor)
	}
}

func TestRoot_InvalidConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "", "--dispatch-executor", "threads", "vocab", "-m", "x.model")
	if err == nil {
		t.Fatal("expected invalid executor to fail before running the command")
	}
}

