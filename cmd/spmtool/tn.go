package main

import (
	"fmt"
	"log/slog"

	"github.com/example/go-spm-tools/internal/apply"
	"github.com/example/go-spm-tools/internal/text"
	"github.com/spf13/cobra"
)

func newTNCmd() *cobra.Command {
	var (
		input       string
		output      string
		punctuation string
		nfkc        bool
	)

	cmd := &cobra.Command{
		Use:   "tn",
		Short: "Normalise a WikiText-style corpus into upper-cased sentences",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			opts := text.DefaultOptions(cfg.TN.KeepApostrophe)
			if cmd.Flags().Changed("punctuation") {
				opts.Punctuation = punctuation
			}
			opts.NFKC = nfkc

			r, err := apply.OpenInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer r.Close()

			w, err := apply.OpenOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := w.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("close output: %w", cerr)
				}
			}()

			n, err := text.NormalizeStream(r, w, opts)
			if err != nil {
				return err
			}

			slog.Info("normalised corpus", "input", input, "output", output, "sentences", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "text.txt", `Input corpus, "-" for stdin`)
	cmd.Flags().StringVarP(&output, "output", "o", "text.txt.tn", `Output file, "-" for stdout`)
	cmd.Flags().StringVar(&punctuation, "punctuation", "", "Characters replaced by spaces (default ASCII punctuation)")
	cmd.Flags().BoolVar(&nfkc, "nfkc", false, "Apply NFKC normalisation first")

	return cmd
}
