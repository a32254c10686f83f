// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"testing"
)

func TestExitCodeIsValid(t *testing.T) {
	tests := []struct {
		code ExitCode
		want bool
	}{
		{code: 0, want: true},
		{code: 1, want: true},
		{code: 255, want: true},
		{code: -1, want: false},
		{code: 256, want: false},
	}

	for _, tt := range tests {
		ok, errs := tt.code.IsValid()
		if ok != tt.want {
			t.Errorf("ExitCode(%d).IsValid() = %v, want %v", tt.code, ok, tt.want)
		}
		if !ok {
			if len(errs) != 1 {
				t.Fatalf("expected one validation error, got %d", len(errs))
			}
			if !errors.Is(errs[0], ErrInvalidExitCode) {
				t.Errorf("expected ErrInvalidExitCode, got %v", errs[0])
			}
		}
	}
}

func TestExitCodeIsTransient(t *testing.T) {
	for _, code := range []ExitCode{125, 126} {
		if !code.IsTransient() {
			t.Errorf("ExitCode(%d) should be transient", code)
		}
	}
	for _, code := range []ExitCode{0, 1, 124, 127} {
		if code.IsTransient() {
			t.Errorf("ExitCode(%d) should not be transient", code)
		}
	}
}

func TestExitCodeString(t *testing.T) {
	if got := ExitCode(42).String(); got != "42" {
		t.Errorf("String() = %q", got)
	}
}
