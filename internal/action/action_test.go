// SPDX-License-Identifier: MPL-2.0

package action

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wrun-cli/internal/plan"
)

func testActionContext(t *testing.T, step *plan.StepPlan) *Context {
	t.Helper()
	return &Context{
		Context: context.Background(),
		Step:    step,
		Workdir: t.TempDir(),
		Stdout:  &bytes.Buffer{},
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	a, err := r.Get("checkout")
	if err != nil {
		t.Fatalf("checkout must be registered: %v", err)
	}
	if a.Name() != "checkout" {
		t.Errorf("name = %q", a.Name())
	}
}

func TestRegistryUnknownAction(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("setup-rust")
	if err == nil {
		t.Fatal("expected an error for an unknown action")
	}
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if !strings.Contains(err.Error(), "checkout") {
		t.Errorf("error must name the known actions: %v", err)
	}
}

func TestCheckoutVerifiesWorkspace(t *testing.T) {
	ctx := testActionContext(t, &plan.StepPlan{Name: "checkout", Action: "checkout"})

	if err := NewCheckout().Run(ctx); err != nil {
		t.Fatalf("checkout failed for an existing workspace: %v", err)
	}

	out := ctx.Stdout.(*bytes.Buffer).String()
	if !strings.Contains(out, ctx.Workdir) {
		t.Errorf("output should name the workspace: %q", out)
	}
}

func TestCheckoutMissingWorkspace(t *testing.T) {
	ctx := testActionContext(t, &plan.StepPlan{Name: "checkout", Action: "checkout"})
	ctx.Workdir = filepath.Join(ctx.Workdir, "does-not-exist")

	if err := NewCheckout().Run(ctx); err == nil {
		t.Error("expected an error for a missing workspace")
	}
}

func TestCheckoutPathInput(t *testing.T) {
	ctx := testActionContext(t, &plan.StepPlan{
		Name:   "checkout",
		Action: "checkout",
		With:   map[string]string{"path": "crates/core"},
	})
	if err := os.MkdirAll(filepath.Join(ctx.Workdir, "crates", "core"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := NewCheckout().Run(ctx); err != nil {
		t.Fatalf("checkout failed for an existing subdirectory: %v", err)
	}

	ctx.Step.With["path"] = "missing/dir"
	if err := NewCheckout().Run(ctx); err == nil {
		t.Error("expected an error for a missing path input")
	}

	ctx.Step.With["path"] = "/absolute/path"
	if err := NewCheckout().Run(ctx); err == nil {
		t.Error("expected an error for an absolute path input")
	}
}
