package main

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestBinary_Help builds the real spmtool binary and runs it, so package
// init failures in linked dependencies show up here.
func TestBinary_Help(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}

	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not in PATH")
	}

	bin := filepath.Join(t.TempDir(), "spmtool")

	build := exec.Command(goBin, "build", "-o", bin, ".")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, out)
	}

	for _, args := range [][]string{{"--help"}, {"vocab", "--help"}, {"apply", "--help"}} {
		out, err := exec.Command(bin, args...).CombinedOutput()
		if err != nil {
			t.Fatalf("spmtool %v: %v\n%s", args, err, out)
		}

		if strings.Contains(string(out), "panic") || !strings.Contains(string(out), "spmtool") {
			t.Errorf("spmtool %v output:\n%s", args, out)
		}
	}
}
