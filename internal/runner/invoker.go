// Package runner launches the external workload executables and
// collects repeated timing trials from them.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrExecutableNotFound is returned when the target path does not exist
// before launch. Checking up front turns an opaque OS-level failure
// into a clear precondition error.
var ErrExecutableNotFound = errors.New("executable not found")

// RunError reports a nonzero exit from the external process, carrying
// the captured stderr for diagnostics. Whether it aborts the batch or
// only the current configuration is the caller's policy.
type RunError struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.ExitCode, e.Stderr)
}

// Spec describes one external invocation.
type Spec struct {
	Path string
	Args []string
	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment, e.g. OMP_NUM_THREADS for OpenMP sweeps.
	Env []string
	Dir string
	// CaptureStdout collects the child's stdout into Result.Stdout;
	// otherwise stdout is discarded. Stderr is always captured because
	// the workloads report their metrics there.
	CaptureStdout bool
	// Stdout and Stderr, when set, receive the child's output live as
	// it is produced, so long-running workloads stay visible. Stderr
	// is still captured into Result.Stderr alongside.
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the outcome of a completed invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Invoker runs external programs. The interface exists so batch drivers
// and commands can be tested with canned results instead of real
// processes.
type Invoker interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// execCommandContext allows mocking in tests.
var execCommandContext = exec.CommandContext

// ExecInvoker is the os/exec-backed Invoker. Invocations block until
// the child exits; no timeout is applied, so a hung workload blocks the
// harness indefinitely. That matches current behavior and is a known
// limitation, not a guarantee.
type ExecInvoker struct{}

func (ExecInvoker) Run(ctx context.Context, spec Spec) (Result, error) {
	if _, err := os.Stat(spec.Path); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrExecutableNotFound, spec.Path)
	}

	cmd := execCommandContext(ctx, spec.Path, spec.Args...)
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	var outBuf, errBuf bytes.Buffer
	switch {
	case spec.CaptureStdout && spec.Stdout != nil:
		cmd.Stdout = io.MultiWriter(&outBuf, spec.Stdout)
	case spec.CaptureStdout:
		cmd.Stdout = &outBuf
	case spec.Stdout != nil:
		cmd.Stdout = spec.Stdout
	}
	cmd.Stderr = &errBuf
	if spec.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&errBuf, spec.Stderr)
	}

	err := cmd.Run()
	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &RunError{Path: spec.Path, ExitCode: result.ExitCode, Stderr: result.Stderr}
		}
		return result, fmt.Errorf("launching %s: %w", spec.Path, err)
	}
	return result, nil
}
