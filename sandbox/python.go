// Package sandbox executes expert-generated Python snippets locally.
//
// This is NOT a security boundary: the code runs with the privileges of the
// host process, bounded only by a wall-clock timeout. Run untrusted model
// output in a container or jail.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultInterpreter avoids relying on a python->python3 alias.
	DefaultInterpreter = "python3"

	// DefaultTimeout bounds one snippet's wall-clock execution.
	DefaultTimeout = 3 * time.Second
)

// Execution outcome strings. These are part of the feedback the orchestrating
// model sees, so their exact wording is stable.
const (
	noOutputMessage = "(No output was generated. It is possible that you did not include a print statement in your code.)"
	timeoutMessage  = "Execution took too long, aborting..."
)

// PythonRunner runs Python source in a subprocess and captures its output.
// Failures are reported in the returned string, never as errors: whatever
// happens, the text goes back to the model as execution feedback.
type PythonRunner struct {
	// Interpreter is the executable to invoke. Defaults to "python3".
	Interpreter string

	// Timeout bounds one execution. Defaults to 3 seconds.
	Timeout time.Duration

	// Logger receives execution diagnostics. Nil means quiet.
	Logger *zap.Logger
}

// NewPythonRunner creates a runner with the default interpreter and timeout.
func NewPythonRunner(logger *zap.Logger) *PythonRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PythonRunner{
		Interpreter: DefaultInterpreter,
		Timeout:     DefaultTimeout,
		Logger:      logger,
	}
}

// Run writes source to a temp file, executes it, and returns the captured
// stdout. Stderr-only runs return "Error in execution: ..."; silent runs
// return a hint about missing print statements; timeouts return the abort
// message.
func (r *PythonRunner) Run(ctx context.Context, source string) string {
	interpreter := r.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tmp, err := os.CreateTemp("", "metaprompt-*.py")
	if err != nil {
		return fmt.Sprintf("Error in execution: %s", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return fmt.Sprintf("Error in execution: %s", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Sprintf("Error in execution: %s", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(execCtx, interpreter, tmp.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		if r.Logger != nil {
			r.Logger.Debug("python execution timed out", zap.Duration("timeout", timeout))
		}
		return timeoutMessage
	}

	captured := strings.TrimSpace(stdout.String())
	errOutput := strings.TrimSpace(stderr.String())

	if captured == "" {
		switch {
		case errOutput != "":
			captured = fmt.Sprintf("Error in execution: %s", errOutput)
		case runErr != nil:
			captured = fmt.Sprintf("Error in execution: %s", runErr)
		default:
			captured = noOutputMessage
		}
	}
	return captured
}
