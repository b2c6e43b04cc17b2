package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WriteScript writes one shell command line per task: program, quoted args,
// and a redirect of stdout and stderr into the task log.
func WriteScript(path, program string, tasks []Task) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close script: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, t := range tasks {
		if _, err := w.WriteString(CommandLine(program, t) + "\n"); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
	}
	return w.Flush()
}

// CommandLine renders a task as a POSIX shell command.
func CommandLine(program string, t Task) string {
	parts := make([]string, 0, len(t.Args)+1)
	parts = append(parts, ShellQuote(program))
	for _, a := range t.Args {
		parts = append(parts, ShellQuote(a))
	}

	line := strings.Join(parts, " ")
	if t.LogPath != "" {
		line += " > " + ShellQuote(t.LogPath) + " 2>&1"
	}
	return line
}

// ShellQuote quotes s for POSIX sh when it contains anything beyond a safe set.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./=:,+@%", r)
}

// ReadScript returns the command lines of a script, skipping blank lines and
// # comments. Line numbers are 1-based positions in the file.
func ReadScript(path string) ([]ScriptLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	var lines []ScriptLine
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; s.Scan(); n++ {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, ScriptLine{Number: n, Text: text})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return lines, nil
}

// ScriptLine is one command of a script.
type ScriptLine struct {
	Number int
	Text   string
}

// ShellTasks turns script lines into tasks for a ProcessExecutor running "sh".
func ShellTasks(lines []ScriptLine) []Task {
	tasks := make([]Task, len(lines))
	for i, l := range lines {
		tasks[i] = Task{
			Name: fmt.Sprintf("line %d", l.Number),
			Args: []string{"-c", l.Text},
		}
	}
	return tasks
}
