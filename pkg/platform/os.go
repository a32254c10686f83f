// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// HostOS returns the current host operating system name (runtime.GOOS).
func HostOS() string {
	return runtime.GOOS
}

// IsWindows reports whether the current host is Windows.
func IsWindows() bool {
	return runtime.GOOS == Windows
}
