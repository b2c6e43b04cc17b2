package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNotBPE is returned when a non-BPE model is handed to the BPE backend.
var ErrNotBPE = errors.New("sentencepiece model is not a BPE model")

// BPETokenizer implements Tokenizer for BPE SentencePiece models by greedily
// merging the highest-scoring adjacent pair until no merge is in the vocabulary.
type BPETokenizer struct {
	vocab *Vocab
}

// NewBPETokenizer loads a BPE SentencePiece model. Models of any other type are rejected.
func NewBPETokenizer(modelPath string) (*BPETokenizer, error) {
	vocab, err := LoadVocab(modelPath)
	if err != nil {
		return nil, err
	}

	return newBPETokenizer(vocab)
}

func newBPETokenizer(vocab *Vocab) (*BPETokenizer, error) {
	if !vocab.IsBPE() {
		return nil, ErrNotBPE
	}

	return &BPETokenizer{vocab: vocab}, nil
}

func (t *BPETokenizer) EncodePieces(text string) ([]string, error) {
	ids, err := t.EncodeIDs(text)
	if err != nil {
		return nil, err
	}

	pieces := make([]string, len(ids))
	for i, id := range ids {
		pieces[i] = t.vocab.pieces[id].Text
	}

	return pieces, nil
}

func (t *BPETokenizer) EncodeIDs(text string) ([]int, error) {
	words := strings.Fields(norm.NFKC.String(text))
	if len(words) == 0 {
		return []int{}, nil
	}

	symbols := splitRunes(wordBoundary + strings.Join(words, wordBoundary))
	symbols = t.merge(symbols)

	ids := make([]int, 0, len(symbols))
	for _, s := range symbols {
		if id, ok := t.vocab.mergeable[s]; ok {
			ids = append(ids, id)
			continue
		}

		if fallback, ok := t.byteFallback(s); ok {
			ids = append(ids, fallback...)
			continue
		}

		if t.vocab.unknown < 0 {
			return nil, fmt.Errorf("%w: %q has no piece and the model has no unknown piece", ErrIDOutOfRange, s)
		}

		// Runs of unknown symbols collapse into one.
		if n := len(ids); n > 0 && ids[n-1] == t.vocab.unknown {
			continue
		}
		ids = append(ids, t.vocab.unknown)
	}

	return ids, nil
}

// merge applies the best-scoring pair merge until none is left. Ties go to
// the leftmost pair.
func (t *BPETokenizer) merge(symbols []string) []string {
	for len(symbols) > 1 {
		best := -1
		var bestScore float32

		for i := 0; i+1 < len(symbols); i++ {
			id, ok := t.vocab.mergeable[symbols[i]+symbols[i+1]]
			if !ok {
				continue
			}
			if score := t.vocab.pieces[id].Score; best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}

		if best < 0 {
			break
		}

		symbols[best] += symbols[best+1]
		symbols = append(symbols[:best+1], symbols[best+2:]...)
	}

	return symbols
}

// byteFallback spells s as <0xNN> pieces when the model carries all of them.
func (t *BPETokenizer) byteFallback(s string) ([]int, bool) {
	if len(t.vocab.bytes) == 0 {
		return nil, false
	}

	ids := make([]int, 0, len(s))
	for i := 0; i < len(s); i++ {
		id, ok := t.vocab.bytes[s[i]]
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}

	return ids, true
}

// DecodePieces resolves pieces to ids and decodes them like DecodeIDs.
func (t *BPETokenizer) DecodePieces(pieces []string) (string, error) {
	return t.vocab.decodePieces(pieces)
}

// DecodeIDs drops control symbols, renders unknown ids as " ⁇ " and detokenizes the rest.
func (t *BPETokenizer) DecodeIDs(ids []int) (string, error) {
	return t.vocab.decodeIDs(ids)
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
