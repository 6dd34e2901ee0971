// Package executil provides the external-process execution capability that
// resources use to query and change system state. The engine itself never
// runs processes; it only threads a Runner through the shared run context.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result is the captured outcome of one external command.
type Result struct {
	// ExitCode is the command's exit status.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// Duration is how long the command ran.
	Duration time.Duration
}

// Runner runs external programs with captured output.
type Runner interface {
	// Run executes a program and returns an error when it exits non-zero.
	Run(ctx context.Context, program string, args ...string) (*Result, error)

	// RunUnchecked executes a program and returns its result regardless of
	// exit status; the error is non-nil only when the program could not be
	// started at all.
	RunUnchecked(ctx context.Context, program string, args ...string) (*Result, error)

	// Which reports whether a program is available on PATH.
	Which(program string) bool
}

// LocalRunner is the os/exec-backed Runner for the local machine.
type LocalRunner struct{}

// NewLocalRunner creates a runner for the local machine.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run implements Runner.
func (r *LocalRunner) Run(ctx context.Context, program string, args ...string) (*Result, error) {
	result, err := r.RunUnchecked(ctx, program, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("%s exited with status %d: %s",
			program, result.ExitCode, firstLine(result.Stderr))
	}
	return result, nil
}

// RunUnchecked implements Runner.
func (r *LocalRunner) RunUnchecked(ctx context.Context, program string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", program, err)
	}

	return result, nil
}

// Which implements Runner.
func (r *LocalRunner) Which(program string) bool {
	_, err := exec.LookPath(program)
	return err == nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
