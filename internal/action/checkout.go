// SPDX-License-Identifier: MPL-2.0

package action

import (
	"fmt"
	"os"
	"path/filepath"
)

// Checkout anchors a job to its workspace. A hosted CI service clones the
// repository here; a local run already has the sources, so checkout only
// verifies the workspace exists and, with a `path` input, that the
// subdirectory does too.
type Checkout struct{}

// NewCheckout creates the checkout action.
func NewCheckout() *Checkout {
	return &Checkout{}
}

// Name returns the action reference.
func (c *Checkout) Name() string {
	return "checkout"
}

// Run verifies the workspace directory.
//
// Supported inputs:
//   - path: a subdirectory of the workspace that must exist
func (c *Checkout) Run(ctx *Context) error {
	dir := ctx.Workdir
	if sub := ctx.Step.With["path"]; sub != "" {
		if filepath.IsAbs(sub) {
			return fmt.Errorf("checkout path %q must be relative to the workspace", sub)
		}
		dir = filepath.Join(dir, sub)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("workspace %q is not accessible: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %q is not a directory", dir)
	}

	fmt.Fprintf(ctx.Stdout, "using workspace %s\n", dir)
	return nil
}
