// Package tokenizer wraps SentencePiece models behind a single interface
// covering both directions (text to pieces/ids and back).
//
// Unigram models are served by github.com/vikesh-raj/go-sentencepiece-encoder.
// BPE models are merged in-package over the same ModelProto. Load picks the
// backend from the model_type in the model's trainer spec.
package tokenizer

// Tokenizer encodes text into SentencePiece pieces or ids and decodes them back.
type Tokenizer interface {
	// EncodePieces tokenizes text and returns the surface pieces.
	EncodePieces(text string) ([]string, error)
	// EncodeIDs tokenizes text and returns vocabulary ids.
	EncodeIDs(text string) ([]int, error)
	// DecodePieces joins pieces back into text using the ▁ word-boundary marker.
	DecodePieces(pieces []string) (string, error)
	// DecodeIDs maps ids to pieces and detokenizes them.
	DecodeIDs(ids []int) (string, error)
}
