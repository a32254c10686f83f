// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"wrun-cli/internal/plan"
)

// Runner kind constants for the supported execution backends.
const (
	KindNative    Kind = "native"
	KindVirtual   Kind = "virtual"
	KindContainer Kind = "container"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid runner kind")

type (
	// Kind identifies a runner implementation.
	Kind string

	// InvalidKindError is returned when a runner kind is not recognized.
	// It wraps ErrInvalidKind for errors.Is.
	InvalidKindError struct {
		Value Kind
	}

	// StepContext carries everything a runner needs to execute one rendered
	// step.
	StepContext struct {
		// Context is the Go context for cancellation and step timeouts.
		Context context.Context
		// Step is the rendered step to execute.
		Step *plan.StepPlan
		// Instance is the job instance the step belongs to.
		Instance *plan.JobInstance
		// WorkflowName is the workflow's display name, exported to steps.
		WorkflowName string
		// EventName is the triggering event kind, exported to steps.
		EventName string
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
		// Stdin is where to read standard input.
		Stdin io.Reader
		// EnvFiles are dotenv files applied on top of the step environment.
		EnvFiles []string
		// ExtraEnv holds --env overrides; these win over every other source.
		ExtraEnv map[string]string
	}

	// Runner defines the interface step runners implement.
	Runner interface {
		// Name returns the runner name.
		Name() string
		// Available returns whether this runner can be used on this system.
		Available() bool
		// Validate checks if a step can be executed with this runner.
		Validate(ctx *StepContext) error
		// Execute runs one step and reports its result.
		Execute(ctx *StepContext) *Result
	}

	// Registry holds the configured runners.
	Registry struct {
		runners map[Kind]Runner
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid runner kind %q (must be %q, %q, or %q)",
		e.Value, KindNative, KindVirtual, KindContainer)
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// IsValid returns whether the Kind is one of the defined kinds,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindNative, KindVirtual, KindContainer:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// String returns the kind as a plain string.
func (k Kind) String() string { return string(k) }

// ParseKind parses a string into a runner Kind.
func ParseKind(value string) (Kind, error) {
	k := Kind(value)
	if ok, errs := k.IsValid(); !ok {
		return "", errs[0]
	}
	return k, nil
}

// NewStepContext creates a step context with standard I/O defaults.
func NewStepContext(step *plan.StepPlan, instance *plan.JobInstance) *StepContext {
	return &StepContext{
		Context:  context.Background(),
		Step:     step,
		Instance: instance,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Stdin:    os.Stdin,
		ExtraEnv: make(map[string]string),
	}
}

// NewRegistry creates an empty runner registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[Kind]Runner)}
}

// Register adds a runner to the registry.
func (r *Registry) Register(kind Kind, rn Runner) {
	r.runners[kind] = rn
}

// Get returns a runner by kind.
func (r *Registry) Get(kind Kind) (Runner, error) {
	rn, ok := r.runners[kind]
	if !ok {
		return nil, fmt.Errorf("runner %q is not registered", kind)
	}
	return rn, nil
}

// Available returns the kinds of all usable runners.
func (r *Registry) Available() []Kind {
	var kinds []Kind
	for kind, rn := range r.runners {
		if rn.Available() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Execute runs a step with the runner of the given kind, checking
// availability and validity first.
func (r *Registry) Execute(kind Kind, ctx *StepContext) *Result {
	rn, err := r.Get(kind)
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	if !rn.Available() {
		return &Result{
			ExitCode: 1,
			Error:    fmt.Errorf("runner %q is not available on this system", rn.Name()),
		}
	}

	if err := rn.Validate(ctx); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	return rn.Execute(ctx)
}
