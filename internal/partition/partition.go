// Package partition splits a text file into line-balanced parts and merges
// per-part results back in order.
//
// Part names carry alphabetic suffixes (aa, ab, ..., zz, then aaa, ...) of a
// fixed width per split, so lexicographic filename order equals partition order.
package partition

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	PartPrefix = "part"
	OutPrefix  = "out"
	LogPrefix  = "log"

	minSuffixLen = 2
)

// ErrInvalidParts is returned when fewer than one part is requested.
var ErrInvalidParts = errors.New("number of parts must be at least 1")

// SuffixWidth returns the suffix length needed to name n parts, never below two.
func SuffixWidth(n int) int {
	width := minSuffixLen
	capacity := 26 * 26
	for capacity < n {
		width++
		capacity *= 26
	}
	return width
}

// Suffix returns the i-th alphabetic suffix of the given width: 0 -> "aa", 1 -> "ab".
func Suffix(i, width int) string {
	b := make([]byte, width)
	for pos := width - 1; pos >= 0; pos-- {
		b[pos] = byte('a' + i%26)
		i /= 26
	}
	return string(b)
}

// Derive swaps the prefix token of a part file name, keeping its directory and
// suffix: Derive("w/part.ab", "out") == "w/out.ab".
func Derive(partPath, prefix string) string {
	dir, base := filepath.Split(partPath)
	suffix := strings.TrimPrefix(base, PartPrefix)
	return filepath.Join(dir, prefix+suffix)
}

// SuffixOf returns the suffix of a part, out or log file name.
func SuffixOf(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[i+1:]
	}
	return base
}

// CountLines returns the number of lines in r. A trailing line without a
// newline counts as a line.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	n := 0
	last := byte('\n')

	for {
		k, err := r.Read(buf)
		if k > 0 {
			n += bytes.Count(buf[:k], []byte{'\n'})
			last = buf[k-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
	}

	if last != '\n' {
		n++
	}
	return n, nil
}

// Sizes returns how many lines each of n parts receives for total lines:
// the first total%n parts get one extra line.
func Sizes(total, n int) []int {
	sizes := make([]int, n)
	base, extra := total/n, total%n
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// Split writes exactly n parts of input into dir as part.<suffix> and returns
// their paths in order. Parts may be empty when the input has fewer lines than n.
func Split(input, dir string, n int) ([]string, error) {
	if n < 1 {
		return nil, ErrInvalidParts
	}

	total, err := countFileLines(input)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	width := SuffixWidth(n)
	paths := make([]string, 0, n)

	for i, size := range Sizes(total, n) {
		path := filepath.Join(dir, PartPrefix+"."+Suffix(i, width))
		if err := writePart(path, br, size); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func countFileLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	n, err := CountLines(f)
	if err != nil {
		return 0, fmt.Errorf("count lines in %s: %w", path, err)
	}
	return n, nil
}

func writePart(path string, br *bufio.Reader, lines int) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close part %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(out)
	for range lines {
		line, rerr := br.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("read input: %w", rerr)
		}
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("write part %s: %w", path, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write part %s: %w", path, err)
	}
	return nil
}

// Glob returns the files in dir named prefix.* in lexicographic order.
func Glob(dir, prefix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+".*"))
	if err != nil {
		return nil, fmt.Errorf("glob %s.*: %w", prefix, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Concat writes the contents of paths, in the given order, to dst.
func Concat(dst string, paths []string) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create merged output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close merged output: %w", cerr)
		}
	}()

	for _, p := range paths {
		if err := appendFile(out, p); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
