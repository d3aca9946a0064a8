package sandbox

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultInterpreter); err != nil {
		t.Skipf("%s not available: %v", DefaultInterpreter, err)
	}
}

func TestPythonRunner_CapturesStdout(t *testing.T) {
	requirePython(t)
	r := NewPythonRunner(nil)

	got := r.Run(context.Background(), "print(2+2)")
	if got != "4" {
		t.Errorf("Run() = %q, want 4", got)
	}
}

func TestPythonRunner_NoOutput(t *testing.T) {
	requirePython(t)
	r := NewPythonRunner(nil)

	got := r.Run(context.Background(), "x = 2 + 2")
	if !strings.Contains(got, "did not include a print statement") {
		t.Errorf("Run() = %q, want the missing-print hint", got)
	}
}

func TestPythonRunner_ErrorOutput(t *testing.T) {
	requirePython(t)
	r := NewPythonRunner(nil)

	got := r.Run(context.Background(), "raise ValueError('boom')")
	if !strings.HasPrefix(got, "Error in execution: ") {
		t.Errorf("Run() = %q, want an execution error", got)
	}
	if !strings.Contains(got, "boom") {
		t.Errorf("Run() = %q, should surface the traceback", got)
	}
}

func TestPythonRunner_Timeout(t *testing.T) {
	requirePython(t)
	r := NewPythonRunner(nil)
	r.Timeout = 200 * time.Millisecond

	got := r.Run(context.Background(), "import time\ntime.sleep(10)\nprint('done')")
	if got != "Execution took too long, aborting..." {
		t.Errorf("Run() = %q, want the timeout message", got)
	}
}

func TestPythonRunner_MissingInterpreter(t *testing.T) {
	r := NewPythonRunner(nil)
	r.Interpreter = "definitely-not-a-python"

	got := r.Run(context.Background(), "print('hi')")
	if !strings.HasPrefix(got, "Error in execution: ") {
		t.Errorf("Run() = %q, want an execution error", got)
	}
}
