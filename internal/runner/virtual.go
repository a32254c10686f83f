// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner executes steps with an in-process POSIX shell interpreter.
// It needs no shell on the host, which makes step behavior identical across
// platforms.
type VirtualRunner struct{}

// NewVirtualRunner creates a new virtual runner.
func NewVirtualRunner() *VirtualRunner {
	return &VirtualRunner{}
}

// Name returns the runner name.
func (r *VirtualRunner) Name() string {
	return string(KindVirtual)
}

// Available returns true: the interpreter is built in.
func (r *VirtualRunner) Available() bool {
	return true
}

// Validate checks the step and parses its script for syntax errors, so
// broken scripts fail before any cell starts executing.
func (r *VirtualRunner) Validate(ctx *StepContext) error {
	if ctx.Step == nil {
		return fmt.Errorf("no step to execute")
	}
	if ctx.Step.Run == "" {
		return fmt.Errorf("step %q has no run script", ctx.Step.Name)
	}
	if ctx.Step.Shell != "" && ctx.Step.Shell != "sh" && ctx.Step.Shell != "bash" {
		return fmt.Errorf("virtual runner cannot emulate shell %q", ctx.Step.Shell)
	}

	if _, err := r.parse(ctx.Step.Run); err != nil {
		return fmt.Errorf("step %q: script syntax error: %w", ctx.Step.Name, err)
	}
	return nil
}

// Execute runs the step's script in the interpreter.
func (r *VirtualRunner) Execute(ctx *StepContext) *Result {
	prog, err := r.parse(ctx.Step.Run)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to parse script: %w", err)}
	}

	env, err := BuildEnv(ctx, true)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	sh, err := interp.New(
		interp.Dir(ctx.Step.WorkingDirectory),
		interp.Env(expand.ListEnviron(EnvToSlice(env)...)),
		interp.StdIO(ctx.Stdin, ctx.Stdout, ctx.Stderr),
	)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	start := time.Now()
	err = sh.Run(execCtx, prog)
	duration := time.Since(start)

	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: ExitCode(exitStatus), Duration: duration}
		}
		return &Result{
			ExitCode: 1,
			Error:    fmt.Errorf("script execution failed: %w", err),
			Duration: duration,
		}
	}

	return &Result{Duration: duration}
}

func (r *VirtualRunner) parse(script string) (*syntax.File, error) {
	return syntax.NewParser().Parse(strings.NewReader(script), "script")
}
