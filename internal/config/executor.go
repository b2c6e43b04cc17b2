package config

import (
	"fmt"
	"strings"
)

const (
	ExecutorProcess   = "process"
	ExecutorInProcess = "inprocess"
)

func NormalizeExecutor(raw string) (string, error) {
	executor := strings.ToLower(strings.TrimSpace(raw))
	if executor == "" {
		executor = ExecutorProcess
	}
	switch executor {
	case ExecutorProcess, ExecutorInProcess:
		return executor, nil
	case "in-process", "goroutine":
		return ExecutorInProcess, nil
	case "subprocess":
		return ExecutorProcess, nil
	default:
		return "", fmt.Errorf(
			"invalid executor %q (expected %s|%s)",
			raw,
			ExecutorProcess,
			ExecutorInProcess,
		)
	}
}
