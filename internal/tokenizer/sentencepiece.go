package tokenizer

import (
	"errors"
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// ErrEmptyPath is returned when a tokenizer is requested with an empty model path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// SentencePieceTokenizer implements Tokenizer using a pure-Go UNIGRAM SentencePiece model.
type SentencePieceTokenizer struct {
	proc  gosp.Sentencepiece
	vocab *Vocab
}

// NewSentencePieceTokenizer loads a UNIGRAM SentencePiece model from the given path.
func NewSentencePieceTokenizer(modelPath string) (*SentencePieceTokenizer, error) {
	vocab, err := LoadVocab(modelPath)
	if err != nil {
		return nil, err
	}

	return newSentencePieceTokenizer(modelPath, vocab)
}

func newSentencePieceTokenizer(modelPath string, vocab *Vocab) (*SentencePieceTokenizer, error) {
	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", modelPath, err)
	}

	return &SentencePieceTokenizer{proc: proc, vocab: vocab}, nil
}

// EncodeIDs tokenizes text and returns vocabulary ids.
func (t *SentencePieceTokenizer) EncodeIDs(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}

	ids := t.proc.TokenizeToIDs(text)

	result := make([]int, len(ids))
	for i, id := range ids {
		result[i] = int(id)
	}

	return result, nil
}

// EncodePieces tokenizes text and maps each id to its vocabulary piece.
// Unknown spans come back as the model's unknown piece (usually <unk>).
func (t *SentencePieceTokenizer) EncodePieces(text string) ([]string, error) {
	ids, err := t.EncodeIDs(text)
	if err != nil {
		return nil, err
	}

	pieces := make([]string, len(ids))
	for i, id := range ids {
		p, ok := t.vocab.Piece(id)
		if !ok {
			return nil, fmt.Errorf("%w: encoder produced id %d", ErrIDOutOfRange, id)
		}
		pieces[i] = p.Text
	}

	return pieces, nil
}

// DecodePieces resolves pieces to ids and decodes them like DecodeIDs.
func (t *SentencePieceTokenizer) DecodePieces(pieces []string) (string, error) {
	return t.vocab.decodePieces(pieces)
}

// DecodeIDs drops control symbols, renders unknown ids as " ⁇ " and detokenizes the rest.
func (t *SentencePieceTokenizer) DecodeIDs(ids []int) (string, error) {
	return t.vocab.decodeIDs(ids)
}
