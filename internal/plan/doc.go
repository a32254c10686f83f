// SPDX-License-Identifier: MPL-2.0

// Package plan turns a workflow plus a simulated event into an execution
// plan: the matrix expanded into cells, every step template rendered into
// its final command string, env layers merged, and working directories
// resolved. A plan is pure data; nothing here executes anything, which is
// what makes the expansion statically checkable.
package plan
