package main

import (
	"errors"
	"fmt"

	"github.com/example/go-spm-tools/internal/partition"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <workdir>",
		Short: "Concatenate out.* of an apply working directory",
		Long: `Merge the per-part outputs of a multi-worker apply run, for example
after re-running failed lines of cmds.sh by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			return mergeWorkDir(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Merged output file")

	return cmd
}

// mergeWorkDir concatenates out.* in suffix order, refusing to merge when a
// part has no output.
func mergeWorkDir(dir, output string) error {
	parts, err := partition.Glob(dir, partition.PartPrefix)
	if err != nil {
		return err
	}
	outs, err := partition.Glob(dir, partition.OutPrefix)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return fmt.Errorf("no %s.* files in %s", partition.PartPrefix, dir)
	}
	if len(outs) != len(parts) {
		return fmt.Errorf("%s has %d parts but %d outputs", dir, len(parts), len(outs))
	}

	return partition.Concat(output, outs)
}
