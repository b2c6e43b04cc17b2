package partition

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestSuffix(t *testing.T) {
	tests := []struct {
		i, width int
		want     string
	}{
		{0, 2, "aa"},
		{1, 2, "ab"},
		{25, 2, "az"},
		{26, 2, "ba"},
		{675, 2, "zz"},
		{676, 3, "baa"},
		{0, 3, "aaa"},
	}

	for _, tt := range tests {
		if got := Suffix(tt.i, tt.width); got != tt.want {
			t.Errorf("Suffix(%d, %d) = %q, want %q", tt.i, tt.width, got, tt.want)
		}
	}
}

func TestSuffixWidth(t *testing.T) {
	tests := []struct{ n, want int }{
		{1, 2},
		{676, 2},
		{677, 3},
		{17576, 3},
		{17577, 4},
	}

	for _, tt := range tests {
		if got := SuffixWidth(tt.n); got != tt.want {
			t.Errorf("SuffixWidth(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestDerive(t *testing.T) {
	got := Derive(filepath.Join("w", "o.txt.dir", "part.ab"), OutPrefix)
	if want := filepath.Join("w", "o.txt.dir", "out.ab"); got != want {
		t.Errorf("Derive = %q, want %q", got, want)
	}

	if got := Derive("part.zz", LogPrefix); got != "log.zz" {
		t.Errorf("Derive = %q, want log.zz", got)
	}

	if got := SuffixOf("/tmp/x/log.abc"); got != "abc" {
		t.Errorf("SuffixOf = %q, want abc", got)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"\n\n", 2},
		{strings.Repeat("x\n", 100_000), 100_000},
	}

	for _, tt := range tests {
		got, err := CountLines(strings.NewReader(tt.in))
		if err != nil {
			t.Fatalf("CountLines: %v", err)
		}
		if got != tt.want {
			t.Errorf("CountLines(%.20q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSizes(t *testing.T) {
	if got := Sizes(10, 3); !slices.Equal(got, []int{4, 3, 3}) {
		t.Errorf("Sizes(10, 3) = %v", got)
	}
	if got := Sizes(2, 4); !slices.Equal(got, []int{1, 1, 0, 0}) {
		t.Errorf("Sizes(2, 4) = %v", got)
	}
}

func TestSplit_FourLinesTwoParts(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "l1\nl2\nl3\nl4\n")
	wdir := filepath.Join(dir, "out.txt.dir")
	if err := os.Mkdir(wdir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	parts, err := Split(input, wdir, 2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	want := []string{filepath.Join(wdir, "part.aa"), filepath.Join(wdir, "part.ab")}
	if !slices.Equal(parts, want) {
		t.Fatalf("parts = %v, want %v", parts, want)
	}

	if got := readFile(t, parts[0]); got != "l1\nl2\n" {
		t.Errorf("part.aa = %q", got)
	}
	if got := readFile(t, parts[1]); got != "l3\nl4\n" {
		t.Errorf("part.ab = %q", got)
	}
}

func TestSplit_MorePartsThanLines(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "only\n")

	parts, err := Split(input, dir, 3)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(parts) != 3 {
		t.Fatalf("got %d parts, want exactly 3", len(parts))
	}
	if readFile(t, parts[0]) != "only\n" || readFile(t, parts[1]) != "" || readFile(t, parts[2]) != "" {
		t.Error("unexpected part contents")
	}
}

func TestSplit_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Split(filepath.Join(dir, "in.txt"), dir, 0); !errors.Is(err, ErrInvalidParts) {
		t.Errorf("Split(n=0) err = %v, want ErrInvalidParts", err)
	}

	if _, err := Split(filepath.Join(dir, "missing.txt"), dir, 2); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Split(missing) err = %v, want ErrNotExist", err)
	}
}

func TestGlobAndConcat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "out.ab", "2\n")
	writeFile(t, dir, "out.aa", "1\n")
	writeFile(t, dir, "out.ba", "3\n")
	writeFile(t, dir, "log.aa", "ignored\n")

	outs, err := Glob(dir, OutPrefix)
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(outs) != 3 || !sort.StringsAreSorted(outs) {
		t.Fatalf("Glob = %v", outs)
	}

	merged := filepath.Join(dir, "merged.txt")
	if err := Concat(merged, outs); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if got := readFile(t, merged); got != "1\n2\n3\n" {
		t.Errorf("merged = %q", got)
	}
}

func TestConcat_MissingPart(t *testing.T) {
	dir := t.TempDir()
	err := Concat(filepath.Join(dir, "m.txt"), []string{filepath.Join(dir, "out.aa")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Concat err = %v, want ErrNotExist", err)
	}
}

// Partitioning never drops or duplicates lines, and lexicographic
// concatenation of the parts reproduces the input.
func TestSplit_PreservesLinesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`[a-z ]{0,8}`), 1, 60).Draw(rt, "lines")
		n := rapid.IntRange(1, len(lines)).Draw(rt, "parts")
		trailingNewline := rapid.Bool().Draw(rt, "trailingNewline")

		content := strings.Join(lines, "\n")
		// An empty last line only exists when it is newline-terminated.
		if trailingNewline || lines[len(lines)-1] == "" {
			content += "\n"
		}

		dir, err := os.MkdirTemp("", "partition-prop-*")
		if err != nil {
			rt.Fatalf("MkdirTemp: %v", err)
		}
		defer os.RemoveAll(dir)

		input := filepath.Join(dir, "in.txt")
		if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
			rt.Fatalf("WriteFile: %v", err)
		}

		parts, err := Split(input, dir, n)
		if err != nil {
			rt.Fatalf("Split: %v", err)
		}
		if len(parts) != n {
			rt.Fatalf("got %d parts, want %d", len(parts), n)
		}

		sorted, err := Glob(dir, PartPrefix)
		if err != nil {
			rt.Fatalf("Glob: %v", err)
		}
		if !slices.Equal(sorted, parts) {
			rt.Fatalf("glob order %v differs from split order %v", sorted, parts)
		}

		total := 0
		var rebuilt strings.Builder
		for _, p := range sorted {
			data, err := os.ReadFile(p)
			if err != nil {
				rt.Fatalf("ReadFile: %v", err)
			}
			c, _ := CountLines(strings.NewReader(string(data)))
			total += c
			rebuilt.Write(data)
		}

		if total != len(lines) {
			rt.Fatalf("parts hold %d lines, input has %d", total, len(lines))
		}
		if rebuilt.String() != content {
			rt.Fatalf("concatenated parts differ from input")
		}
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}
