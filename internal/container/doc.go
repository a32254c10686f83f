// SPDX-License-Identifier: MPL-2.0

// Package container abstracts over CLI container engines (Docker/Podman)
// for running workflow steps in isolated containers.
package container
