// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"wrun-cli/pkg/platform"
)

// NativeRunner executes steps with the system shell, directly on the host.
type NativeRunner struct {
	// Shell overrides the default shell binary.
	Shell string
}

// NewNativeRunner creates a new native runner.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{}
}

// Name returns the runner name.
func (r *NativeRunner) Name() string {
	return string(KindNative)
}

// Available returns whether a usable shell exists.
func (r *NativeRunner) Available() bool {
	_, err := r.resolveShell("")
	return err == nil
}

// Validate checks if a step can be executed.
func (r *NativeRunner) Validate(ctx *StepContext) error {
	if ctx.Step == nil {
		return fmt.Errorf("no step to execute")
	}
	if ctx.Step.Run == "" {
		return fmt.Errorf("step %q has no run script", ctx.Step.Name)
	}
	if ctx.Step.Shell != "" {
		if _, err := r.resolveShell(ctx.Step.Shell); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the step's script with the system shell.
func (r *NativeRunner) Execute(ctx *StepContext) *Result {
	shell, err := r.resolveShell(ctx.Step.Shell)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	args := append(shellArgs(shell), ctx.Step.Run)

	// Inside a Flatpak or Snap sandbox the host toolchain is invisible, so
	// steps spawn through the sandbox escape command when one exists.
	binary := shell
	if spawn := platform.SpawnCommand(); spawn != "" {
		args = append(append(platform.SpawnArgs(), shell), args...)
		binary = spawn
	}

	cmd := exec.CommandContext(ctx.Context, binary, args...)
	cmd.Dir = ctx.Step.WorkingDirectory

	env, err := BuildEnv(ctx, true)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}
	cmd.Env = EnvToSlice(env)

	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if exitErr, ok := errors.AsType[*exec.ExitError](err); ok {
			return &Result{ExitCode: ExitCode(exitErr.ExitCode()), Duration: duration}
		}
		return &Result{
			ExitCode: 1,
			Error:    fmt.Errorf("failed to execute step: %w", err),
			Duration: duration,
		}
	}

	return &Result{Duration: duration}
}

// resolveShell picks the shell binary: the step's declared shell, the
// runner-level override, then platform defaults.
func (r *NativeRunner) resolveShell(stepShell string) (string, error) {
	if stepShell != "" {
		path, err := exec.LookPath(stepShell)
		if err != nil {
			return "", fmt.Errorf("declared shell %q not found: %w", stepShell, err)
		}
		return path, nil
	}

	if r.Shell != "" {
		return r.Shell, nil
	}

	if platform.IsWindows() {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", fmt.Errorf("no shell found")
}

// shellArgs returns the flag(s) that make a shell run a script string.
func shellArgs(shell string) []string {
	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}
