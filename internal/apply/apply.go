// Package apply runs a SentencePiece model over a text stream, one line in,
// one line out.
package apply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-spm-tools/internal/tokenizer"
)

// Mode selects the transformation direction.
type Mode string

const (
	ModeEncode Mode = "encode"
	ModeDecode Mode = "decode"
)

// TokenKind selects the token representation on the tokenized side.
type TokenKind string

const (
	TokenPiece TokenKind = "piece"
	TokenID    TokenKind = "id"
)

// ErrUnsupported is returned for an unknown mode or token kind.
var ErrUnsupported = errors.New("unsupported operation")

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeEncode, ModeDecode:
		return m, nil
	default:
		return "", fmt.Errorf("%w: mode %q (expected encode|decode)", ErrUnsupported, raw)
	}
}

func ParseTokenKind(raw string) (TokenKind, error) {
	switch k := TokenKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case TokenPiece, TokenID:
		return k, nil
	default:
		return "", fmt.Errorf("%w: token %q (expected piece|id)", ErrUnsupported, raw)
	}
}

// LineFunc transforms one whitespace-stripped input line.
type LineFunc func(line string) (string, error)

// NewLineFunc picks the per-line transformation for mode and kind. Unsupported
// combinations fail here, before any input is read.
func NewLineFunc(tok tokenizer.Tokenizer, mode Mode, kind TokenKind) (LineFunc, error) {
	if tok == nil {
		return nil, errors.New("tokenizer is nil")
	}

	switch {
	case mode == ModeEncode && kind == TokenPiece:
		return func(line string) (string, error) {
			pieces, err := tok.EncodePieces(line)
			if err != nil {
				return "", err
			}
			return strings.Join(pieces, " "), nil
		}, nil
	case mode == ModeEncode && kind == TokenID:
		return func(line string) (string, error) {
			ids, err := tok.EncodeIDs(line)
			if err != nil {
				return "", err
			}
			return joinIDs(ids), nil
		}, nil
	case mode == ModeDecode && kind == TokenPiece:
		return func(line string) (string, error) {
			return tok.DecodePieces(strings.Fields(line))
		}, nil
	case mode == ModeDecode && kind == TokenID:
		return func(line string) (string, error) {
			ids, err := parseIDs(line)
			if err != nil {
				return "", err
			}
			return tok.DecodeIDs(ids)
		}, nil
	default:
		return nil, fmt.Errorf("%w: mode %q with token %q", ErrUnsupported, mode, kind)
	}
}

// Stream applies fn to every line of r and writes one output line per input
// line to w, in input order. Lines may be arbitrarily long.
func Stream(r io.Reader, w io.Writer, fn LineFunc) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read line %d: %w", lineNo, readErr)
		}
		if line == "" && readErr != nil {
			break
		}

		out, err := fn(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		if _, err := bw.WriteString(out); err != nil {
			return fmt.Errorf("write line %d: %w", lineNo, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write line %d: %w", lineNo, err)
		}

		if readErr != nil {
			break
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

func joinIDs(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

func parseIDs(line string) ([]int, error) {
	fields := strings.Fields(line)
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", f, err)
		}
		ids[i] = id
	}
	return ids, nil
}
