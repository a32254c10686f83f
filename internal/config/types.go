// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// RunnerNative runs steps in the host system shell.
	// Defined locally to avoid coupling config to internal/runner;
	// the CLI layer casts to runner.Kind at the boundary.
	RunnerNative RunnerMode = "native"
	// RunnerVirtual runs steps in the embedded mvdan/sh interpreter.
	RunnerVirtual RunnerMode = "virtual"
	// RunnerContainer runs steps inside a container (Docker/Podman).
	RunnerContainer RunnerMode = "container"

	// ContainerEngineDocker uses the Docker CLI.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses the Podman CLI.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineAuto picks whichever engine is available.
	ContainerEngineAuto ContainerEngine = "auto"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRunnerMode is returned when a RunnerMode value is not recognized.
	ErrInvalidRunnerMode = errors.New("invalid runner mode")
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RunnerMode specifies the step execution backend.
	RunnerMode string

	// InvalidRunnerModeError is returned when a RunnerMode value is not
	// recognized. It wraps ErrInvalidRunnerMode for errors.Is.
	InvalidRunnerModeError struct {
		Value RunnerMode
	}

	// ContainerEngine specifies which container CLI to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value
	// is not recognized. It wraps ErrInvalidContainerEngine for errors.Is.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is and collects field-level
	// validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultRunner is the step execution backend used when the CLI
		// does not override it.
		DefaultRunner RunnerMode `json:"default_runner" mapstructure:"default_runner"`
		// MaxParallel bounds concurrent matrix cells (0 = number of CPUs).
		MaxParallel int `json:"max_parallel" mapstructure:"max_parallel"`
		// ContainerEngine selects the container CLI.
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Container configures container step behavior.
		Container ContainerConfig `json:"container" mapstructure:"container"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures watch mode.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// ContainerConfig configures container step behavior.
	ContainerConfig struct {
		// DefaultImage is the image container steps run in.
		DefaultImage string `json:"default_image" mapstructure:"default_image"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// DebounceMs coalesces file change bursts, in milliseconds.
		DebounceMs int `json:"debounce_ms" mapstructure:"debounce_ms"`
	}
)

// Error implements the error interface.
func (e *InvalidRunnerModeError) Error() string {
	return fmt.Sprintf("invalid runner mode %q (must be %q, %q, or %q)",
		e.Value, RunnerNative, RunnerVirtual, RunnerContainer)
}

// Unwrap returns ErrInvalidRunnerMode so callers can use errors.Is.
func (e *InvalidRunnerModeError) Unwrap() error { return ErrInvalidRunnerMode }

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (must be %q, %q, or %q)",
		e.Value, ContainerEngineDocker, ContainerEnginePodman, ContainerEngineAuto)
}

// Unwrap returns ErrInvalidContainerEngine so callers can use errors.Is.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (must be %q, %q, or %q)",
		e.Value, ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the RunnerMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m RunnerMode) IsValid() (bool, []error) {
	switch m {
	case RunnerNative, RunnerVirtual, RunnerContainer:
		return true, nil
	default:
		return false, []error{&InvalidRunnerModeError{Value: m}}
	}
}

// String returns the mode as a plain string.
func (m RunnerMode) String() string { return string(m) }

// IsValid returns whether the ContainerEngine is one of the defined engines,
// and a list of validation errors if it is not.
func (c ContainerEngine) IsValid() (bool, []error) {
	switch c {
	case ContainerEngineDocker, ContainerEnginePodman, ContainerEngineAuto:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: c}}
	}
}

// String returns the engine as a plain string.
func (c ContainerEngine) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes,
// and a list of validation errors if it is not.
func (s ColorScheme) IsValid() (bool, []error) {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: s}}
	}
}

// String returns the scheme as a plain string.
func (s ColorScheme) String() string { return string(s) }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultRunner:   RunnerNative,
		MaxParallel:     0,
		ContainerEngine: ContainerEngineAuto,
		Container: ContainerConfig{
			DefaultImage: "ubuntu:24.04",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Watch: WatchConfig{
			DebounceMs: 400,
		},
	}
}

// Validate checks every field against its allowed values, collecting all
// failures instead of stopping at the first.
func (c *Config) Validate() error {
	var fieldErrs []error

	if ok, errs := c.DefaultRunner.IsValid(); !ok {
		fieldErrs = append(fieldErrs, errs...)
	}
	if ok, errs := c.ContainerEngine.IsValid(); !ok {
		fieldErrs = append(fieldErrs, errs...)
	}
	if ok, errs := c.UI.ColorScheme.IsValid(); !ok {
		fieldErrs = append(fieldErrs, errs...)
	}
	if c.MaxParallel < 0 {
		fieldErrs = append(fieldErrs, fmt.Errorf("max_parallel must be >= 0, got %d", c.MaxParallel))
	}
	if c.Watch.DebounceMs < 0 {
		fieldErrs = append(fieldErrs, fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs))
	}

	if len(fieldErrs) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrs}
	}
	return nil
}
