// Package doctor provides environment preflight checks for spmtool.
package doctor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// SpmTrainPath resolves the spm_train binary.
	SpmTrainPath VersionFunc
	// PythonVersion returns the Python version string (e.g. "3.11.4").
	PythonVersion VersionFunc
	// SentencePieceModule reports whether python can import sentencepiece.
	SentencePieceModule func() error
	// SkipTrainer skips the spm_train and Python checks.
	SkipTrainer bool
	// ModelPath is the configured tokenizer model; empty skips the check.
	ModelPath string
	// LoadModel opens ModelPath and returns its vocabulary size.
	LoadModel func(path string) (int, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Training needs either spm_train or Python with sentencepiece, so a missing
// spm_train alone is not a failure.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	if cfg.SkipTrainer {
		fmt.Fprintf(w, "%s trainer: skipped\n", PassMark)
	} else {
		spmOK := checkSpmTrain(cfg, w)
		pyOK := checkPython(cfg, w)
		if !spmOK && !pyOK {
			res.fail("trainer: neither spm_train nor python sentencepiece is available")
		}
	}

	if cfg.ModelPath == "" {
		fmt.Fprintf(w, "%s tokenizer model: not configured\n", PassMark)
	} else if cfg.LoadModel != nil {
		size, err := cfg.LoadModel(cfg.ModelPath)
		if err != nil {
			res.fail(fmt.Sprintf("tokenizer model %q: %v", cfg.ModelPath, err))
			fmt.Fprintf(w, "%s tokenizer model %s: %v\n", FailMark, cfg.ModelPath, err)
		} else {
			fmt.Fprintf(w, "%s tokenizer model: %s (%d pieces)\n", PassMark, cfg.ModelPath, size)
		}
	}

	return res
}

func checkSpmTrain(cfg Config, w io.Writer) bool {
	if cfg.SpmTrainPath == nil {
		return false
	}
	path, err := cfg.SpmTrainPath()
	if err != nil {
		fmt.Fprintf(w, "%s spm_train: not found (%v)\n", FailMark, err)
		return false
	}
	fmt.Fprintf(w, "%s spm_train: %s\n", PassMark, path)
	return true
}

func checkPython(cfg Config, w io.Writer) bool {
	if cfg.PythonVersion == nil {
		return false
	}
	pyVer, err := cfg.PythonVersion()
	if err != nil {
		fmt.Fprintf(w, "%s python version: not found (%v)\n", FailMark, err)
		return false
	}
	if pyErr := checkPythonVersion(pyVer); pyErr != nil {
		fmt.Fprintf(w, "%s python version %s: %v\n", FailMark, pyVer, pyErr)
		return false
	}
	fmt.Fprintf(w, "%s python version: %s\n", PassMark, pyVer)

	if cfg.SentencePieceModule == nil {
		return true
	}
	if err := cfg.SentencePieceModule(); err != nil {
		fmt.Fprintf(w, "%s python sentencepiece: %v\n", FailMark, err)
		return false
	}
	fmt.Fprintf(w, "%s python sentencepiece: importable\n", PassMark)
	return true
}

// checkPythonVersion returns an error unless ver is Python 3.8 or newer.
// ver is expected to be a string like "3.11.4".
func checkPythonVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 3 {
		return fmt.Errorf("requires Python 3, got %d", major)
	}
	if minor < 8 {
		return fmt.Errorf("requires Python >=3.8, got 3.%d", minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
