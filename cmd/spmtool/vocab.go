package main

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/example/go-spm-tools/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newVocabCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the id, piece and type of every vocabulary entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			path := modelPath
			if path == "" {
				path = cfg.Tokenizer.ModelPath
			}
			if path == "" {
				return errors.New("model path is required; pass -m or set tokenizer.model_path")
			}

			vocab, err := tokenizer.LoadVocab(path)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, p := range vocab.Pieces() {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Text, p.Type)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "SentencePiece model path (default from tokenizer.model_path)")

	return cmd
}
