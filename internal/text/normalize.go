// Package text normalises WikiText-style corpora into one upper-cased,
// punctuation-free sentence per line for tokenizer training.
package text

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// asciiPunctuation is every printable ASCII punctuation character.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const (
	titleMarker       = "="
	sentenceSeparator = " . "
)

// Options controls NormalizeLine.
type Options struct {
	// Punctuation lists the runes replaced by a space.
	Punctuation string
	// NFKC applies compatibility composition before anything else.
	NFKC bool
}

// DefaultOptions removes all ASCII punctuation, keeping the apostrophe when
// keepApostrophe is set so that contractions survive.
func DefaultOptions(keepApostrophe bool) Options {
	p := asciiPunctuation
	if keepApostrophe {
		p = strings.ReplaceAll(p, "'", "")
	}
	return Options{Punctuation: p}
}

// NormalizeLine turns one corpus line into zero or more normalised sentences.
// Empty lines and section titles ("= Heading =") produce nothing.
func NormalizeLine(line string, opts Options) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, titleMarker) {
		return nil
	}
	if opts.NFKC {
		line = norm.NFKC.String(line)
	}

	upper := cases.Upper(language.Und)
	strip := punctuationReplacer(opts.Punctuation)

	var out []string
	for _, s := range strings.Split(line, sentenceSeparator) {
		s = strip.Replace(s)
		s = strings.ReplaceAll(s, " 's", "'s")
		s = strings.Join(strings.Fields(s), " ")
		s = strings.TrimSpace(upper.String(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func punctuationReplacer(punct string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(punct))
	for _, r := range punct {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}

// NormalizeStream applies NormalizeLine to every line of r and writes one
// sentence per line to w. It returns the number of sentences written.
func NormalizeStream(r io.Reader, w io.Writer, opts Options) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	written := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return written, fmt.Errorf("read input: %w", readErr)
		}

		for _, s := range NormalizeLine(line, opts) {
			if _, err := bw.WriteString(s + "\n"); err != nil {
				return written, fmt.Errorf("write output: %w", err)
			}
			written++
		}

		if readErr == io.EOF {
			break
		}
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("write output: %w", err)
	}
	return written, nil
}
