// SPDX-License-Identifier: MPL-2.0

// Package event models the CI events a workflow can react to and evaluates
// trigger conditions. Only two event kinds exist: push and pull_request.
// Branch filters are doublestar glob patterns matched against the full
// branch name.
package event

import (
	"errors"
	"fmt"

	"wrun-cli/pkg/workflow"

	"github.com/bmatcuk/doublestar/v4"
)

// Event kind constants.
const (
	// KindPush is a push to a branch.
	KindPush Kind = "push"
	// KindPullRequest is a pull request targeting a branch.
	KindPullRequest Kind = "pull_request"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid event kind")

type (
	// Kind is the event kind.
	Kind string

	// InvalidKindError is returned when an event kind is not recognized.
	// It wraps ErrInvalidKind for errors.Is.
	InvalidKindError struct {
		Value Kind
	}

	// Event is a simulated CI event: the kind and the branch it concerns.
	// For pushes the branch is the pushed-to branch; for pull requests it
	// is the target branch.
	Event struct {
		Kind   Kind
		Branch string
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid event kind %q (must be %q or %q)", e.Value, KindPush, KindPullRequest)
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// IsValid returns whether the Kind is one of the defined kinds,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindPush, KindPullRequest:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// String returns the kind as a plain string.
func (k Kind) String() string { return string(k) }

// ParseKind parses a string into a Kind.
func ParseKind(value string) (Kind, error) {
	k := Kind(value)
	if ok, errs := k.IsValid(); !ok {
		return "", errs[0]
	}
	return k, nil
}

// Matches reports whether the event triggers the workflow: the workflow
// must declare the event's kind, and the event branch must pass the
// declared branch filter.
func Matches(w *workflow.Workflow, ev Event) bool {
	var filter *workflow.BranchFilter
	switch ev.Kind {
	case KindPush:
		filter = w.On.Push
	case KindPullRequest:
		filter = w.On.PullRequest
	default:
		return false
	}

	if filter == nil {
		return false
	}

	return branchMatches(filter, ev.Branch)
}

// branchMatches applies a branch filter. An empty pattern list matches
// every branch; otherwise the branch must match at least one glob.
func branchMatches(filter *workflow.BranchFilter, branch string) bool {
	if len(filter.Branches) == 0 {
		return true
	}

	for _, pattern := range filter.Branches {
		// Invalid patterns never match; they were accepted by the schema
		// (any non-empty string), so treat them as literal mismatches
		// rather than failing the whole evaluation.
		if ok, err := doublestar.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}
