package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/dh1101/llm-term/internal/logging"
	"github.com/dh1101/llm-term/internal/shell"
)

// Result holds the captured output of a finished command.
// A non-zero ExitCode is reported here rather than as an error.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Executor runs command strings through a shell
type Executor struct {
	shell shell.Shell
	log   *logging.Logger
}

// New creates an executor for the given shell
func New(sh shell.Shell, log *logging.Logger) *Executor {
	return &Executor{shell: sh, log: log}
}

// Run executes command synchronously and captures stdout and stderr in full.
// An error is returned only when the shell process could not be started.
func (e *Executor) Run(ctx context.Context, command string) (Result, error) {
	name, flag := e.shell.Invocation()
	e.log.Debugf("Executor", "using shell %s %s", name, flag)
	e.log.Debugf("Executor", "executing command: %q", command)

	cmd := exec.CommandContext(ctx, name, flag, command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			e.log.Debugf("Executor", "command failed with exit code %d", result.ExitCode)
			return result, nil
		}
		e.log.Debugf("Executor", "command failed to start: %v", err)
		return result, fmt.Errorf("failed to start %s: %w", name, err)
	}

	e.log.Debugf("Executor", "command completed successfully")
	return result, nil
}
