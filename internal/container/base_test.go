// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os/exec"
	"reflect"
	"testing"
)

func TestRunArgsDeterministicEnvOrder(t *testing.T) {
	e := NewBaseCLIEngine("docker", "/usr/bin/docker")

	opts := RunOptions{
		Image:   "rust:1.80",
		Command: []string{"sh", "-c", "cargo build"},
		WorkDir: "/work",
		Env: map[string]string{
			"CARGO_TERM_COLOR": "always",
			"A_FIRST":          "1",
		},
		Volumes: []string{"/src:/work"},
		Remove:  true,
	}

	want := []string{
		"run", "--rm",
		"-w", "/work",
		"-v", "/src:/work",
		"-e", "A_FIRST=1",
		"-e", "CARGO_TERM_COLOR=always",
		"rust:1.80",
		"sh", "-c", "cargo build",
	}

	for range 10 {
		if got := e.RunArgs(opts); !reflect.DeepEqual(got, want) {
			t.Fatalf("RunArgs = %v, want %v", got, want)
		}
	}
}

func TestRunArgsInteractive(t *testing.T) {
	e := NewBaseCLIEngine("podman", "/usr/bin/podman")

	got := e.RunArgs(RunOptions{Image: "alpine", Command: []string{"sh"}, Interactive: true})
	want := []string{"run", "-i", "alpine", "sh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RunArgs = %v, want %v", got, want)
	}
}

func TestCreateCommandUsesInjectedExec(t *testing.T) {
	var gotName string
	var gotArgs []string

	e := NewBaseCLIEngine("docker", "/usr/bin/docker", WithExecCommand(
		func(ctx context.Context, name string, arg ...string) *exec.Cmd {
			gotName = name
			gotArgs = arg
			return exec.CommandContext(ctx, "true")
		}))

	cmd := e.CreateCommand(context.Background(), "version")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if gotName != "/usr/bin/docker" {
		t.Errorf("binary = %q", gotName)
	}
	if !reflect.DeepEqual(gotArgs, []string{"version"}) {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestRunReportsExitCodeNotError(t *testing.T) {
	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(
		func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
			return exec.CommandContext(ctx, "sh", "-c", "exit 3")
		}))

	result, err := e.Run(context.Background(), RunOptions{Image: "alpine", Command: []string{"sh"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("a plain exit code must not populate result.Error, got %v", result.Error)
	}
}

func TestRunSpawnFailurePopulatesError(t *testing.T) {
	e := NewBaseCLIEngine("docker", "docker", WithExecCommand(
		func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
			return exec.CommandContext(ctx, "/nonexistent/engine-binary")
		}))

	result, err := e.Run(context.Background(), RunOptions{Image: "alpine", Command: []string{"sh"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Error == nil {
		t.Error("expected result.Error for a spawn failure")
	}
	if result.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", result.ExitCode)
	}
}
