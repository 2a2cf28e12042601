// Package command centralizes external tool invocation. Every stage that
// shells out (disk-image utility, desktop scripting, binary inspection) goes
// through the same Runner so exit status and combined output are collected
// uniformly.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures the outcome of a finished external command.
type Result struct {
	ExitCode int
	// Output is the interleaved stdout and stderr of the process.
	Output string
}

// Runner executes an external command and waits for it to exit.
//
// A non-zero exit status is not an error at this layer: the Result carries the
// exit code and callers decide how to classify it. The returned error is
// reserved for failures to run the command at all (binary missing, context
// cancelled before completion).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	// RunInput is Run with the provided text supplied on stdin.
	RunInput(ctx context.Context, input string, name string, args ...string) (Result, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes name with args and collects the combined output.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return r.RunInput(ctx, "", name, args...)
}

// RunInput executes name with args, feeding input on stdin when non-empty.
func (r ExecRunner) RunInput(ctx context.Context, input string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	err := cmd.Run()
	result := Result{Output: combined.String()}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return result, fmt.Errorf("run %s: %w", name, ctx.Err())
		}
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, fmt.Errorf("run %s: %w", name, err)
}
