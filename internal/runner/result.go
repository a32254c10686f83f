// SPDX-License-Identifier: MPL-2.0

package runner

import "time"

// Result contains the outcome of a single step execution.
type Result struct {
	// ExitCode is the step's exit code.
	ExitCode ExitCode
	// Error contains any failure other than a non-zero exit code.
	Error error
	// Duration is how long the step ran.
	Duration time.Duration
}

// Success returns true if the step executed and exited zero.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}
