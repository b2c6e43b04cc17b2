package testutil

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/go-spm-tools/internal/tokenizer"
)

// FakeTokenizer is a deterministic tokenizer.Tokenizer for tests that need no
// model file. Words split into two-rune pieces with a leading ▁ on the first
// piece; ids are the code points of the text with spaces kept as 32.
type FakeTokenizer struct{}

var _ tokenizer.Tokenizer = FakeTokenizer{}

func (FakeTokenizer) EncodePieces(text string) ([]string, error) {
	var pieces []string

	for _, word := range strings.Fields(text) {
		runes := []rune("▁" + word)
		for len(runes) > 0 {
			n := 2
			if runes[0] == '▁' {
				n = 3
			}
			n = min(n, len(runes))
			pieces = append(pieces, string(runes[:n]))
			runes = runes[n:]
		}
	}

	if pieces == nil {
		pieces = []string{}
	}

	return pieces, nil
}

func (FakeTokenizer) EncodeIDs(text string) ([]int, error) {
	text = strings.Join(strings.Fields(text), " ")

	ids := make([]int, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}

	return ids, nil
}

func (FakeTokenizer) DecodePieces(pieces []string) (string, error) {
	return tokenizer.Detokenize(pieces), nil
}

func (FakeTokenizer) DecodeIDs(ids []int) (string, error) {
	var b strings.Builder

	for _, id := range ids {
		if id < 0 || id > utf8.MaxRune {
			return "", fmt.Errorf("%w: %d", tokenizer.ErrIDOutOfRange, id)
		}
		b.WriteRune(rune(id))
	}

	return b.String(), nil
}
