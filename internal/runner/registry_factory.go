// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"

	"wrun-cli/internal/container"
)

const (
	// CodeContainerRunnerInitFailed indicates the container runner could not
	// be initialized.
	CodeContainerRunnerInitFailed InitDiagnosticCode = "container_runner_init_failed"
)

// ErrInvalidInitDiagnosticCode is the sentinel error wrapped by InvalidInitDiagnosticCodeError.
var ErrInvalidInitDiagnosticCode = errors.New("invalid init diagnostic code")

type (
	// BuildRegistryOptions configures runner registry construction.
	BuildRegistryOptions struct {
		// ContainerEngine selects the engine ("docker", "podman", "auto").
		ContainerEngine container.EngineType
		// ContainerImage is the default image for container steps.
		ContainerImage string
	}

	// InitDiagnosticCode categorizes non-fatal registry initialization
	// diagnostics.
	InitDiagnosticCode string

	// InvalidInitDiagnosticCodeError is returned when an InitDiagnosticCode
	// value is not one of the defined codes.
	InvalidInitDiagnosticCodeError struct {
		Value InitDiagnosticCode
	}

	// InitDiagnostic reports a non-fatal registry initialization detail.
	InitDiagnostic struct {
		Code    InitDiagnosticCode
		Message string
		Cause   error
	}

	// RegistryBuildResult contains the built registry and diagnostics.
	// Registry is always non-nil after BuildRegistry returns.
	RegistryBuildResult struct {
		Registry         *Registry
		Diagnostics      []InitDiagnostic
		ContainerInitErr error
	}
)

// Error implements the error interface.
func (e *InvalidInitDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid init diagnostic code %q (valid: %s)",
		e.Value, CodeContainerRunnerInitFailed)
}

// Unwrap returns ErrInvalidInitDiagnosticCode so callers can use errors.Is.
func (e *InvalidInitDiagnosticCodeError) Unwrap() error { return ErrInvalidInitDiagnosticCode }

// String returns the string representation of the InitDiagnosticCode.
func (c InitDiagnosticCode) String() string { return string(c) }

// Validate returns nil if the InitDiagnosticCode is one of the defined
// codes, or a validation error if it is not.
func (c InitDiagnosticCode) Validate() error {
	switch c {
	case CodeContainerRunnerInitFailed:
		return nil
	default:
		return &InvalidInitDiagnosticCodeError{Value: c}
	}
}

// BuildRegistry creates and populates the runner registry. Native and
// virtual runners are always registered; container runner registration is
// best-effort and reported via Diagnostics and ContainerInitErr.
func BuildRegistry(opts BuildRegistryOptions) RegistryBuildResult {
	result := RegistryBuildResult{Registry: NewRegistry()}

	result.Registry.Register(KindNative, NewNativeRunner())
	result.Registry.Register(KindVirtual, NewVirtualRunner())

	engine, err := container.NewEngine(opts.ContainerEngine)
	if err != nil {
		result.ContainerInitErr = err
		result.Diagnostics = append(result.Diagnostics, InitDiagnostic{
			Code:    CodeContainerRunnerInitFailed,
			Message: fmt.Sprintf("container runner unavailable: %v", err),
			Cause:   err,
		})
		return result
	}

	result.Registry.Register(KindContainer, NewContainerRunner(engine, opts.ContainerImage))
	return result
}
