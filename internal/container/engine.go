// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
)

// Engine type constants.
const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
	EngineTypeAuto   EngineType = "auto"
)

type (
	// EngineType identifies the container engine type.
	EngineType string

	// Engine defines the operations a container runner needs from an engine.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available checks if the engine is usable on this system.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
		// Run runs a command in a fresh container.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// ImageExists checks if an image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// Pull pulls an image from its registry.
		Pull(ctx context.Context, image string, stderr io.Writer) error
	}

	// RunOptions describes one container invocation.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// Command is the full command (binary plus args).
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variables set inside the container.
		Env map[string]string
		// Volumes are bind mounts in "host:container" format.
		Volumes []string
		// Remove removes the container after exit.
		Remove bool
		// Stdin is the standard input.
		Stdin io.Reader
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
		// Interactive keeps stdin open.
		Interactive bool
	}

	// RunResult is the outcome of one container run.
	RunResult struct {
		// ExitCode is the container's exit code.
		ExitCode int
		// Error holds a non-exit-code failure (engine not reachable, etc.).
		Error error
	}

	// EngineNotAvailableError is returned when no usable engine is found.
	EngineNotAvailableError struct {
		Engine EngineType
		Reason string
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine %q is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates an engine of the preferred type, falling back to the
// other CLI engine when the preferred one is not available.
func NewEngine(preferred EngineType) (Engine, error) {
	switch preferred {
	case EngineTypeDocker:
		if e := NewDockerEngine(); e.Available() {
			return e, nil
		}
		if e := NewPodmanEngine(); e.Available() {
			return e, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: EngineTypeDocker,
			Reason: "docker is not installed or not accessible, and the podman fallback is also unavailable",
		}
	case EngineTypePodman:
		if e := NewPodmanEngine(); e.Available() {
			return e, nil
		}
		if e := NewDockerEngine(); e.Available() {
			return e, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: EngineTypePodman,
			Reason: "podman is not installed or not accessible, and the docker fallback is also unavailable",
		}
	case EngineTypeAuto, "":
		return AutoDetectEngine()
	default:
		return nil, fmt.Errorf("unknown container engine type %q", preferred)
	}
}

// AutoDetectEngine finds any available engine, preferring Podman since it is
// the more common rootless setup.
func AutoDetectEngine() (Engine, error) {
	if e := NewPodmanEngine(); e.Available() {
		return e, nil
	}
	if e := NewDockerEngine(); e.Available() {
		return e, nil
	}
	return nil, &EngineNotAvailableError{
		Engine: EngineTypeAuto,
		Reason: "neither podman nor docker is available on this system",
	}
}
