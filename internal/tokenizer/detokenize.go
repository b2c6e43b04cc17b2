package tokenizer

import (
	"errors"
	"strconv"
	"strings"
)

// ErrIDOutOfRange is returned when decoding an id outside the vocabulary.
var ErrIDOutOfRange = errors.New("token id out of range")

const (
	wordBoundary = "▁" // ▁ marks the start of a word
	unknownText  = " ⁇ "
)

// Detokenize joins pieces into text: ▁ becomes a space, <0xNN> byte pieces are
// reassembled into raw bytes, and the leading space of the first word is dropped.
func Detokenize(pieces []string) string {
	var b strings.Builder

	for _, p := range pieces {
		if c, ok := bytePiece(p); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteString(strings.ReplaceAll(p, wordBoundary, " "))
	}

	return strings.TrimPrefix(b.String(), " ")
}

// bytePiece decodes byte-fallback pieces of the form <0x41>.
func bytePiece(p string) (byte, bool) {
	if len(p) != 6 || !strings.HasPrefix(p, "<0x") || p[5] != '>' {
		return 0, false
	}
	v, err := strconv.ParseUint(p[3:5], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}
