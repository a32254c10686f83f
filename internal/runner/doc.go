// SPDX-License-Identifier: MPL-2.0

// Package runner provides the step execution runners: native (system
// shell), virtual (in-process POSIX interpreter), and container
// (Docker/Podman). Runners execute a single rendered step; orchestration
// across steps and matrix cells lives in the executor.
package runner
