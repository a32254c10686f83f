// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"time"

	"wrun-cli/internal/container"
)

// containerWorkDir is where the step's working directory is mounted inside
// the container.
const containerWorkDir = "/work"

// runsOnImages maps well-known hosted-runner labels to local images, used
// when no image is configured.
var runsOnImages = map[string]string{
	"ubuntu-latest": "ubuntu:24.04",
	"ubuntu-24.04":  "ubuntu:24.04",
	"ubuntu-22.04":  "ubuntu:22.04",
	"ubuntu-20.04":  "ubuntu:20.04",
}

// ContainerRunner executes steps inside fresh containers, one container per
// step. The step's working directory is bind-mounted at /work.
type ContainerRunner struct {
	engine container.Engine

	// Image is the image steps run in when the job does not name one.
	Image string

	// PullAttempts bounds image pull retries for transient registry errors.
	PullAttempts int
}

// NewContainerRunner creates a container runner on top of an engine.
func NewContainerRunner(engine container.Engine, image string) *ContainerRunner {
	return &ContainerRunner{
		engine:       engine,
		Image:        image,
		PullAttempts: 3,
	}
}

// Name returns the runner name.
func (r *ContainerRunner) Name() string {
	return string(KindContainer)
}

// Available returns whether the container engine is usable.
func (r *ContainerRunner) Available() bool {
	return r.engine != nil && r.engine.Available()
}

// EngineName returns the underlying engine's name, or "" when none is
// configured.
func (r *ContainerRunner) EngineName() string {
	if r.engine == nil {
		return ""
	}
	return r.engine.Name()
}

// Validate checks if a step can be executed in a container.
func (r *ContainerRunner) Validate(ctx *StepContext) error {
	if ctx.Step == nil {
		return fmt.Errorf("no step to execute")
	}
	if ctx.Step.Run == "" {
		return fmt.Errorf("step %q has no run script", ctx.Step.Name)
	}
	if r.resolveImage(ctx) == "" {
		return fmt.Errorf("container runner has no image configured")
	}
	if ctx.Step.Shell != "" && ctx.Step.Shell != "sh" && ctx.Step.Shell != "bash" {
		return fmt.Errorf("container runner supports sh and bash, not %q", ctx.Step.Shell)
	}
	return nil
}

// resolveImage picks the image for a step: the configured image wins, then
// the job's runs-on label through the hosted-runner mapping.
func (r *ContainerRunner) resolveImage(ctx *StepContext) string {
	if r.Image != "" {
		return r.Image
	}
	if ctx.Instance != nil {
		return runsOnImages[ctx.Instance.RunsOn]
	}
	return ""
}

// Execute runs the step's script in a fresh container.
func (r *ContainerRunner) Execute(ctx *StepContext) *Result {
	image := r.resolveImage(ctx)
	if err := r.ensureImage(ctx, image); err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to prepare image %q: %w", image, err)}
	}

	// Host environment stays on the host; the container sees only the
	// step's declared environment plus the built-ins.
	env, err := BuildEnv(ctx, false)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	shell := ctx.Step.Shell
	if shell == "" {
		shell = "sh"
	}

	opts := container.RunOptions{
		Image:       image,
		Command:     []string{shell, "-c", ctx.Step.Run},
		WorkDir:     containerWorkDir,
		Env:         env,
		Volumes:     []string{ctx.Step.WorkingDirectory + ":" + containerWorkDir},
		Remove:      true,
		Stdin:       ctx.Stdin,
		Stdout:      ctx.Stdout,
		Stderr:      ctx.Stderr,
		Interactive: ctx.Stdin != nil,
	}

	start := time.Now()
	runResult, err := r.engine.Run(ctx.Context, opts)
	duration := time.Since(start)

	if err != nil {
		return &Result{ExitCode: 1, Error: err, Duration: duration}
	}

	return &Result{
		ExitCode: ExitCode(runResult.ExitCode),
		Error:    runResult.Error,
		Duration: duration,
	}
}

// ensureImage pulls the image when it is not present locally, retrying
// transient registry failures with backoff.
func (r *ContainerRunner) ensureImage(ctx *StepContext, image string) error {
	exists, err := r.engine.ImageExists(ctx.Context, image)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return container.RetryWithBackoff(ctx.Context, r.PullAttempts, time.Second,
		func(int) (bool, error) {
			err := r.engine.Pull(ctx.Context, image, ctx.Stderr)
			if err == nil {
				return false, nil
			}
			return container.IsTransientError(err), err
		})
}
