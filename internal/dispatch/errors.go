package dispatch

import (
	"fmt"
	"strings"

	"github.com/example/go-spm-tools/internal/batch"
)

// PartitionError reports sub-jobs that failed. The merge is skipped when it is returned.
type PartitionError struct {
	Total  int
	Failed []batch.Result
}

func (e *PartitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d partitions failed:", len(e.Failed), e.Total)
	for _, r := range e.Failed {
		fmt.Fprintf(&b, " %s (exit %d, log %s)", r.Task.Name, r.ExitCode, r.Task.LogPath)
	}
	return b.String()
}

// Partitions returns the names (suffixes) of the failed partitions.
func (e *PartitionError) Partitions() []string {
	names := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		names[i] = r.Task.Name
	}
	return names
}

func (e *PartitionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		errs = append(errs, r.Err)
	}
	return errs
}
