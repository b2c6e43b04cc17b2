// Package testutil provides shared skip helpers and fakes for tests.
//
// Each Require helper calls tb.Skipf with a clear human-readable reason when
// the named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    model := testutil.RequireModel(t)
//	    testutil.RequireShell(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireModel returns the path of a real SentencePiece model, or skips the
// test. It checks SPMTOOL_TEST_MODEL first, then models/tokenizer.model in
// the working directory and its parents.
func RequireModel(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv("SPMTOOL_TEST_MODEL"); p != "" {
		_, err := os.Stat(p)
		if err == nil {
			return p
		}

		tb.Skipf("model not found at SPMTOOL_TEST_MODEL=%q", p)

		return ""
	}

	dir, err := filepath.Abs(".")
	if err != nil {
		tb.Skipf("resolve working directory: %v", err)
		return ""
	}

	for {
		candidate := filepath.Join(dir, "models", "tokenizer.model")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	tb.Skipf("models/tokenizer.model not found; set SPMTOOL_TEST_MODEL to run real-model tests")

	return ""
}

// RequireSpmTrain skips the test if the spm_train binary is not found in PATH
// or at the path given by SPMTOOL_TRAIN_SPM_TRAIN_PATH.
func RequireSpmTrain(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("SPMTOOL_TRAIN_SPM_TRAIN_PATH")
	if exe == "" {
		exe = "spm_train"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("spm_train not available (%q not in PATH); set SPMTOOL_TRAIN_SPM_TRAIN_PATH to override", exe)
		return ""
	}

	return path
}

// RequireShell skips the test when /bin/sh-compatible "sh" is not in PATH.
func RequireShell(tb testing.TB) {
	tb.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		tb.Skipf("sh not available: %v", err)
	}
}

// WriteLines writes lines, each newline-terminated, to a new file under dir.
func WriteLines(tb testing.TB, dir, name string, lines []string) string {
	tb.Helper()

	path := filepath.Join(dir, name)

	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}
