package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/example/go-spm-tools/internal/batch"
	"github.com/spf13/cobra"
)

func newRunParaCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "run-para <script>",
		Short: "Run each line of a shell script with bounded parallelism",
		Long: `Run every non-empty, non-comment line of a script through "sh -c",
with at most -n commands in flight. Lines are independent; the command
fails if any line fails.`,
		Example: "  spmtool run-para -n 8 out.txt.dir/cmds.sh",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("num_workers") {
				workers = cfg.Dispatch.Workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runScript(ctx, args[0], workers, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVarP(&workers, "num_workers", "n", 1, "Commands run at once (default from dispatch.workers)")

	return cmd
}

func runScript(ctx context.Context, path string, workers int, stdout, stderr io.Writer) error {
	if workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", workers)
	}

	lines, err := batch.ReadScript(path)
	if err != nil {
		return err
	}

	executor := batch.ProcessExecutor{
		Program: "sh",
		Stdout:  &syncWriter{w: stdout},
		Stderr:  &syncWriter{w: stderr},
		Logger:  slog.Default(),
	}
	results := executor.Execute(ctx, batch.ShellTasks(lines), workers)

	failed := batch.Failures(results)
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, len(failed))
	for i, r := range failed {
		names[i] = fmt.Sprintf("%s (exit %d)", r.Task.Name, r.ExitCode)
	}
	return fmt.Errorf("%d of %d commands failed: %s", len(failed), len(results), strings.Join(names, ", "))
}

// syncWriter serialises writes from concurrently running commands.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
