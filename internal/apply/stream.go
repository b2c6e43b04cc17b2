package apply

import (
	"fmt"
	"io"
	"os"

	"github.com/example/go-spm-tools/internal/tokenizer"
)

// StdStream is the path sentinel for standard input or standard output.
const StdStream = "-"

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// OpenInput opens path for reading, or returns stdin when path is "-".
func OpenInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == StdStream {
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// OpenOutput creates path for writing, or returns stdout when path is "-".
// Closing the returned writer never closes stdout.
func OpenOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == StdStream {
		return nopWriteCloser{stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// Options describes one single-worker run.
type Options struct {
	Tokenizer  tokenizer.Tokenizer
	Mode       Mode
	Token      TokenKind
	InputPath  string
	OutputPath string
	Stdin      io.Reader
	Stdout     io.Writer
}

// Run validates the operation, resolves "-" sentinels and streams the input
// through the tokenizer.
func Run(opts Options) (err error) {
	fn, err := NewLineFunc(opts.Tokenizer, opts.Mode, opts.Token)
	if err != nil {
		return err
	}

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	in, err := OpenInput(opts.InputPath, opts.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := OpenOutput(opts.OutputPath, opts.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	return Stream(in, out, fn)
}
