package testutil

import (
	"os"
	"path/filepath"
	"testing"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// TinyModelPieces are the pieces of WriteTinyModel, in id order.
var TinyModelPieces = []string{"<unk>", "<s>", "</s>", "▁hello", "▁world", "▁"}

// TinyBPEModelPieces are the pieces of WriteTinyBPEModel, in id order. The
// merges after the single characters rebuild ▁hello and ▁world.
var TinyBPEModelPieces = []string{
	"<unk>", "<s>", "</s>",
	"▁", "h", "e", "l", "o", "w", "r", "d",
	"ll", "▁h", "▁he", "llo", "▁hello", "▁w", "or", "▁wor", "ld", "▁world",
}

// WriteTinyModel writes a UNIGRAM SentencePiece model that knows only
// "hello" and "world" and returns its path.
func WriteTinyModel(tb testing.TB, dir string) string {
	tb.Helper()

	scores := []float32{0, 0, 0, -1, -1, -2}

	return writeModel(tb, filepath.Join(dir, "tiny.model"), gosp.TrainerSpec_UNIGRAM, TinyModelPieces, scores)
}

// WriteTinyBPEModel writes a BPE SentencePiece model over the letters of
// "hello world" and returns its path.
func WriteTinyBPEModel(tb testing.TB, dir string) string {
	tb.Helper()

	scores := make([]float32, len(TinyBPEModelPieces))
	for i := 3; i < len(scores); i++ {
		if i < 11 {
			scores[i] = -20
			continue
		}
		scores[i] = -float32(i - 10)
	}

	return writeModel(tb, filepath.Join(dir, "tiny-bpe.model"), gosp.TrainerSpec_BPE, TinyBPEModelPieces, scores)
}

func writeModel(tb testing.TB, path string, modelType gosp.TrainerSpec_ModelType, pieces []string, scores []float32) string {
	tb.Helper()

	model := gosp.ModelProto{
		TrainerSpec: &gosp.TrainerSpec{ModelType: modelType.Enum()},
	}
	for i, p := range pieces {
		typ := gosp.ModelProto_SentencePiece_NORMAL
		switch p {
		case "<unk>":
			typ = gosp.ModelProto_SentencePiece_UNKNOWN
		case "<s>", "</s>":
			typ = gosp.ModelProto_SentencePiece_CONTROL
		}

		model.Pieces = append(model.Pieces, &gosp.ModelProto_SentencePiece{
			Piece: proto.String(p),
			Score: proto.Float32(scores[i]),
			Type:  typ.Enum(),
		})
	}

	data, err := proto.Marshal(&model)
	if err != nil {
		tb.Fatalf("marshal model: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write model: %v", err)
	}

	return path
}
