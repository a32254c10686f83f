// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities:
// OS name constants, host platform lookup, and application sandbox
// detection (Flatpak/Snap) used when spawning step processes.
package platform
