package tokenizer

import (
	"errors"
	"fmt"
	"os"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// ErrEmptyModel is returned when model bytes are empty or contain no pieces.
var ErrEmptyModel = errors.New("sentencepiece model has no pieces")

// Piece is a single vocabulary entry.
type Piece struct {
	ID    int
	Text  string
	Type  string
	Score float32
}

// Vocab is the id <-> piece table of a SentencePiece model.
type Vocab struct {
	pieces    []Piece
	index     map[string]int
	unknown   int
	control   map[int]bool
	bpe       bool
	mergeable map[string]int
	bytes     map[byte]int
}

// LoadVocab reads the vocabulary of the model stored at path.
func LoadVocab(path string) (*Vocab, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sentencepiece model %q: %w", path, err)
	}

	return ParseVocab(data)
}

// ParseVocab decodes a serialized ModelProto and indexes its pieces.
func ParseVocab(data []byte) (*Vocab, error) {
	if len(data) == 0 {
		return nil, ErrEmptyModel
	}

	var model gosp.ModelProto
	if err := proto.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("unmarshal sentencepiece model: %w", err)
	}

	protoPieces := model.GetPieces()
	if len(protoPieces) == 0 {
		return nil, ErrEmptyModel
	}

	v := &Vocab{
		pieces:    make([]Piece, len(protoPieces)),
		index:     make(map[string]int, len(protoPieces)),
		unknown:   -1,
		control:   make(map[int]bool),
		bpe:       model.GetTrainerSpec().GetModelType() == gosp.TrainerSpec_BPE,
		mergeable: make(map[string]int),
		bytes:     make(map[byte]int),
	}

	for i, p := range protoPieces {
		v.pieces[i] = Piece{
			ID:    i,
			Text:  p.GetPiece(),
			Type:  p.GetType().String(),
			Score: p.GetScore(),
		}
		if _, dup := v.index[p.GetPiece()]; !dup {
			v.index[p.GetPiece()] = i
		}

		switch p.GetType() {
		case gosp.ModelProto_SentencePiece_UNKNOWN:
			v.unknown = i
		case gosp.ModelProto_SentencePiece_CONTROL:
			v.control[i] = true
		case gosp.ModelProto_SentencePiece_NORMAL, gosp.ModelProto_SentencePiece_USER_DEFINED:
			if _, dup := v.mergeable[p.GetPiece()]; !dup {
				v.mergeable[p.GetPiece()] = i
			}
		case gosp.ModelProto_SentencePiece_BYTE:
			if b, ok := bytePiece(p.GetPiece()); ok {
				v.bytes[b] = i
			}
		}
	}

	return v, nil
}

// Size returns the number of pieces.
func (v *Vocab) Size() int { return len(v.pieces) }

// Pieces returns a copy of every vocabulary entry in id order.
func (v *Vocab) Pieces() []Piece { return append([]Piece(nil), v.pieces...) }

// Piece returns the entry for id.
func (v *Vocab) Piece(id int) (Piece, bool) {
	if id < 0 || id >= len(v.pieces) {
		return Piece{}, false
	}
	return v.pieces[id], true
}

// ID returns the id of piece, or the unknown id when the piece is not in the vocabulary.
func (v *Vocab) ID(piece string) (int, bool) {
	id, ok := v.index[piece]
	if !ok {
		return v.unknown, false
	}
	return id, true
}

// IsControl reports whether id is a control symbol such as <s> or </s>.
func (v *Vocab) IsControl(id int) bool { return v.control[id] }

// Unknown returns the id of the unknown piece, or -1 when the model has none.
func (v *Vocab) Unknown() int { return v.unknown }

// IsBPE reports whether the model was trained with model_type=bpe.
func (v *Vocab) IsBPE() bool { return v.bpe }

// decodeIDs drops control symbols, renders unknown ids as " ⁇ " and
// detokenizes the rest.
func (v *Vocab) decodeIDs(ids []int) (string, error) {
	if err := v.checkIDs(ids); err != nil {
		return "", err
	}

	pieces := make([]string, 0, len(ids))
	for _, id := range ids {
		switch {
		case v.IsControl(id):
			continue
		case id == v.unknown:
			pieces = append(pieces, unknownText)
		default:
			pieces = append(pieces, v.pieces[id].Text)
		}
	}

	return Detokenize(pieces), nil
}

// decodePieces resolves each piece to its id, so control and unknown pieces
// decode exactly as their ids do. Pieces missing from the vocabulary count as
// unknown.
func (v *Vocab) decodePieces(pieces []string) (string, error) {
	ids := make([]int, 0, len(pieces))
	for _, p := range pieces {
		id, ok := v.ID(p)
		if !ok && id < 0 {
			return "", fmt.Errorf("%w: piece %q is not in the vocabulary and the model has no unknown piece", ErrIDOutOfRange, p)
		}
		ids = append(ids, id)
	}

	return v.decodeIDs(ids)
}

// checkIDs validates that every id is inside the vocabulary.
func (v *Vocab) checkIDs(ids []int) error {
	for i, id := range ids {
		if id < 0 || id >= len(v.pieces) {
			return fmt.Errorf("%w: id %d at position %d (vocab size %d)", ErrIDOutOfRange, id, i, len(v.pieces))
		}
	}
	return nil
}
