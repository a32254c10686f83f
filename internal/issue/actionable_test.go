// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	cause := errors.New("no such file")

	err := NewErrorContext().
		WithOperation("load workflow").
		WithResource(".ci/workflow.yml").
		Wrap(cause).
		Build()

	want := "failed to load workflow: .ci/workflow.yml: no such file"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestActionableErrorFormatSuggestions(t *testing.T) {
	err := NewErrorContext().
		WithOperation("execute step").
		WithSuggestion("Use --runner virtual").
		WithSuggestion("Check the shell is installed").
		Build()

	out := err.Format(false)
	if !strings.Contains(out, "• Use --runner virtual") {
		t.Errorf("expected first suggestion in output, got %q", out)
	}
	if !strings.Contains(out, "• Check the shell is installed") {
		t.Errorf("expected second suggestion in output, got %q", out)
	}
}

func TestActionableErrorFormatVerboseChain(t *testing.T) {
	inner := errors.New("exit status 101")
	middle := WrapWithOperation(inner, "run cargo test")

	err := NewErrorContext().
		WithOperation("execute step").
		Wrap(middle).
		Build()

	out := err.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Errorf("expected error chain in verbose output, got %q", out)
	}
	if !strings.Contains(out, "exit status 101") {
		t.Errorf("expected innermost cause in chain, got %q", out)
	}
}

func TestBuildRequiresOperation(t *testing.T) {
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError without operation = %v, want nil", err)
	}
}

func TestWrapHelpersNilPassthrough(t *testing.T) {
	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}
	if got := WrapWithContext(nil, "anything", "res"); got != nil {
		t.Errorf("WrapWithContext(nil) = %v, want nil", got)
	}
}
