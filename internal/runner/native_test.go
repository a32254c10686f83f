// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"wrun-cli/pkg/platform"
)

func TestShellArgs(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{shell: "/bin/bash", want: []string{"-c"}},
		{shell: "/bin/sh", want: []string{"-c"}},
		{shell: `C:\Windows\System32\cmd.exe`, want: []string{"/C"}},
		{shell: "pwsh", want: []string{"-NoProfile", "-Command"}},
		{shell: "powershell.exe", want: []string{"-NoProfile", "-Command"}},
	}

	for _, tt := range tests {
		if got := shellArgs(tt.shell); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("shellArgs(%q) = %v, want %v", tt.shell, got, tt.want)
		}
	}
}

func TestNativeRunnerExecute(t *testing.T) {
	if platform.IsWindows() {
		t.Skip("test script is POSIX")
	}

	r := NewNativeRunner()
	ctx := testStepContext(t, `echo "color=$CARGO_TERM_COLOR"`)
	ctx.Step.Shell = "sh"

	result := r.Execute(ctx)
	if !result.Success() {
		t.Fatalf("execution failed: exit=%d err=%v", result.ExitCode, result.Error)
	}

	out := ctx.Stdout.(*bytes.Buffer).String()
	if !strings.Contains(out, "color=always") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNativeRunnerExitCode(t *testing.T) {
	if platform.IsWindows() {
		t.Skip("test script is POSIX")
	}

	r := NewNativeRunner()
	ctx := testStepContext(t, "exit 42")
	ctx.Step.Shell = "sh"

	result := r.Execute(ctx)
	if result.Error != nil {
		t.Fatalf("a plain exit code must not produce an error: %v", result.Error)
	}
	if result.ExitCode != 42 {
		t.Errorf("exit code = %d, want 42", result.ExitCode)
	}
}

func TestNativeRunnerValidate(t *testing.T) {
	r := NewNativeRunner()

	ctx := testStepContext(t, "")
	if err := r.Validate(ctx); err == nil {
		t.Error("expected an error for a step without a script")
	}

	ctx = testStepContext(t, "true")
	ctx.Step.Shell = "definitely-not-a-shell"
	if err := r.Validate(ctx); err == nil {
		t.Error("expected an error for an unresolvable declared shell")
	}
}
