// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

type (
	// ExecCommandFunc creates the exec.Cmd used to invoke the engine binary.
	// Tests inject a mock to capture arguments without a real engine.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine implements the operations shared by every CLI-driven
	// engine. Docker and Podman embed it and keep only the engine-specific
	// availability and version checks on the concrete types.
	BaseCLIEngine struct {
		name        string
		binaryPath  string
		execCommand ExecCommandFunc
	}
)

// WithExecCommand overrides how engine commands are spawned.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// NewBaseCLIEngine creates a base engine for the given binary path.
func NewBaseCLIEngine(name, binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		name:        name,
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BinaryPath returns the resolved engine binary path ("" when not found).
func (e *BaseCLIEngine) BinaryPath() string { return e.binaryPath }

// CreateCommand builds an exec.Cmd invoking the engine binary.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// Run runs a command in a fresh container. A non-zero container exit code is
// reported through RunResult, not as an error: the step failed, the engine
// did not.
func (e *BaseCLIEngine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	cmd := e.CreateCommand(ctx, e.RunArgs(opts)...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	err := cmd.Run()

	result := &RunResult{}
	if err != nil {
		if exitErr, ok := errors.AsType[*exec.ExitError](err); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("%s run failed: %w", e.name, err)
		}
	}

	return result, nil
}

// RunArgs builds the argument slice for a run invocation. Env keys are
// emitted sorted so the same options always produce the same command line.
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}
	if opts.Interactive {
		args = append(args, "-i")
	}
	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}

	for _, volume := range opts.Volumes {
		args = append(args, "-v", volume)
	}

	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+opts.Env[k])
	}

	args = append(args, opts.Image)
	return append(args, opts.Command...)
}

// ImageExists checks if an image is present locally.
func (e *BaseCLIEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	cmd := e.CreateCommand(ctx, "image", "inspect", image)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run() == nil, nil
}

// Pull pulls an image, streaming engine progress to stderr.
func (e *BaseCLIEngine) Pull(ctx context.Context, image string, stderr io.Writer) error {
	cmd := e.CreateCommand(ctx, "pull", image)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to pull image %q with %s: %w", image, e.name, err)
	}
	return nil
}

// RunCommandWithOutput runs an engine command and returns its stdout.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	var out strings.Builder
	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}
