// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error reporting: ActionableError
// carries operation/resource/suggestion context for CLI rendering, and a
// catalog of known failure classes with markdown help pages rendered
// through glamour.
package issue
