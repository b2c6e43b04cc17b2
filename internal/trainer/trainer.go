// Package trainer drives the SentencePiece trainer, either the spm_train
// binary or the Python sentencepiece module.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNoTrainer is returned when neither spm_train nor a Python interpreter
// can be found.
var ErrNoTrainer = errors.New("no sentencepiece trainer found (need spm_train or python3 with sentencepiece)")

// pythonTrain reads "--key=value" argv entries and passes them as keyword
// arguments, so values may contain spaces.
const pythonTrain = `import sys
import sentencepiece as spm
kw = dict(a[2:].split("=", 1) for a in sys.argv[1:])
spm.SentencePieceTrainer.Train(**kw)
`

// Options configures one training run.
type Options struct {
	ConfigPath  string
	Input       string
	ModelPrefix string
	// SpmTrainPath is tried first; empty means "spm_train".
	SpmTrainPath string
	// PythonBin is the fallback interpreter; empty means python3, then python.
	PythonBin string
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
}

// Result describes a finished run.
type Result struct {
	Trainer   string
	Args      []string
	ModelPath string
	VocabPath string
}

// Train creates the model prefix directory, loads trainer params from the
// config file, and runs the first available trainer.
func Train(ctx context.Context, opts Options) (Result, error) {
	if opts.ConfigPath == "" {
		return Result{}, errors.New("trainer config path is required")
	}
	if opts.Input == "" {
		return Result{}, errors.New("training text is required")
	}
	if opts.ModelPrefix == "" {
		return Result{}, errors.New("model prefix is required")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(opts.ModelPrefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create model directory: %w", err)
		}
	}

	params, err := LoadParams(opts.ConfigPath)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Args:      BuildArgs(opts.Input, opts.ModelPrefix, params),
		ModelPath: opts.ModelPrefix + ".model",
		VocabPath: opts.ModelPrefix + ".vocab",
	}

	program, argv, err := resolveTrainer(opts)
	if err != nil {
		return res, err
	}
	res.Trainer = program
	argv = append(argv, res.Args...)

	logger.Info("training tokenizer", "trainer", program, "input", opts.Input, "model_prefix", opts.ModelPrefix, "params", len(params))

	cmd := exec.CommandContext(ctx, program, argv...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return res, fmt.Errorf("run %s: %w", filepath.Base(program), err)
	}

	return res, nil
}

// resolveTrainer returns the program and its leading arguments.
func resolveTrainer(opts Options) (string, []string, error) {
	spm := opts.SpmTrainPath
	if spm == "" {
		spm = "spm_train"
	}
	if path, err := exec.LookPath(spm); err == nil {
		return path, nil, nil
	}

	python, err := DetectPython(opts.PythonBin)
	if err != nil {
		return "", nil, err
	}
	return python, []string{"-c", pythonTrain}, nil
}

// DetectPython resolves the interpreter used for the Python fallback.
func DetectPython(preferred string) (string, error) {
	candidates := []string{"python3", "python"}
	if preferred != "" {
		candidates = []string{preferred}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", ErrNoTrainer
}

// CheckPythonModule reports whether python can import sentencepiece.
func CheckPythonModule(ctx context.Context, python string) error {
	cmd := exec.CommandContext(ctx, python, "-c", "import sentencepiece")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("python module sentencepiece not importable with %s: %w", python, err)
	}
	return nil
}
