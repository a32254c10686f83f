// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"wrun-cli/internal/plan"
)

// ErrUnknownAction is the sentinel error wrapped by UnknownActionError.
var ErrUnknownAction = errors.New("unknown action")

type (
	// Context carries what an action needs to run.
	Context struct {
		// Context is the Go context for cancellation.
		Context context.Context
		// Step is the rendered step invoking the action.
		Step *plan.StepPlan
		// Workdir is the job's resolved working directory.
		Workdir string
		// Stdout is where actions write progress output.
		Stdout io.Writer
	}

	// Action is a built-in step implementation.
	Action interface {
		// Name returns the action reference used in workflow files.
		Name() string
		// Run executes the action.
		Run(ctx *Context) error
	}

	// Registry maps action references to implementations.
	Registry struct {
		actions map[string]Action
	}

	// UnknownActionError is returned when a step references an action the
	// registry does not know. It wraps ErrUnknownAction for errors.Is and
	// names the known actions so the message is actionable on its own.
	UnknownActionError struct {
		Reference string
		Known     []string
	}
)

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q (known actions: %s)",
		e.Reference, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownAction so callers can use errors.Is.
func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// NewRegistry creates a registry with the built-in actions registered.
func NewRegistry() *Registry {
	r := &Registry{actions: make(map[string]Action)}
	r.Register(NewCheckout())
	return r
}

// Register adds an action to the registry.
func (r *Registry) Register(a Action) {
	r.actions[a.Name()] = a
}

// Get returns the action for a reference.
func (r *Registry) Get(reference string) (Action, error) {
	a, ok := r.actions[reference]
	if !ok {
		return nil, &UnknownActionError{Reference: reference, Known: r.Names()}
	}
	return a, nil
}

// Names returns the registered action references, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.actions)
	slices.Sort(names)
	return names
}
